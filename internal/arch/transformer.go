package arch

import (
	"strings"

	"github.com/born-ml/archid/internal/statedict"
)

// SwinIR, Swin2SR and HAT share the same outer layout:
//   - conv_first.weight [embed_dim, in_nc, 3, 3]
//   - layers.{i}.residual_group.blocks.{j}... (residual groups)
//   - conv_last.weight  [out_nc, num_feat, 3, 3]
//   - upsample.{0,2,...}.weight for pixel-shuffle upsamplers,
//     conv_up1/conv_up2 for the nearest+conv upsampler (always x4)

func newSwinIR(sd statedict.StateDict) (*Model, error) {
	return newSwinFamily(SwinIR, sd)
}

func newSwin2SR(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(Swin2SR, sd, "patch_embed.proj.weight"); err != nil {
		return nil, err
	}
	return newSwinFamily(Swin2SR, sd)
}

func newHAT(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(HAT, sd, "layers.0.residual_group.blocks.0.conv_block.cab.0.weight"); err != nil {
		return nil, err
	}
	return newSwinFamily(HAT, sd)
}

func newSwinFamily(tag Tag, sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(tag, sd, "conv_first.weight"); err != nil {
		return nil, err
	}

	m := newModel(tag, sd)
	m.Features = 96
	m.Blocks = countLayerGroups(sd)

	embed, in, ok, err := convChannels(tag, sd, "conv_first.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		m.Features, m.InChannels, m.OutChannels = embed, in, in
	}
	if sd.Has("conv_last.weight") {
		out, _, ok, err := convChannels(tag, sd, "conv_last.weight")
		if err != nil {
			return nil, err
		}
		if ok {
			m.OutChannels = out
		}
	}

	scale, subType, err := swinScale(tag, sd, m.OutChannels)
	if err != nil {
		return nil, err
	}
	m.Scale, m.SubType = scale, subType
	return m, nil
}

// countLayerGroups counts distinct i in "layers.{i}.residual_group...".
func countLayerGroups(sd statedict.StateDict) int {
	seen := make(map[string]struct{})
	for key := range sd {
		rest, ok := strings.CutPrefix(key, "layers.")
		if !ok {
			continue
		}
		idx, tail, ok := strings.Cut(rest, ".")
		if !ok || !strings.HasPrefix(tail, "residual_group.") {
			continue
		}
		seen[idx] = struct{}{}
	}
	return len(seen)
}

// swinScale infers the upscale factor and upsampler flavour.
func swinScale(tag Tag, sd statedict.StateDict, outChannels int) (int, string, error) {
	if sd.Has("conv_up1.weight") {
		return 4, "nearest+conv", nil
	}

	convs := sd.Indices("upsample.", ".weight")
	if len(convs) == 0 {
		return 1, "", nil
	}

	// pixelshuffledirect: a single conv straight to out_nc * scale^2.
	if len(convs) == 1 && !sd.Has("conv_before_upsample.0.weight") {
		key := indexedKey("upsample.", convs[0], ".weight")
		shuffled, _, ok, err := convChannels(tag, sd, key)
		if err != nil {
			return 0, "", err
		}
		if !ok {
			return 1, "pixelshuffledirect", nil
		}
		if shuffled%outChannels != 0 {
			return 0, "", badShape(tag, key, "%d channels not divisible by %d", shuffled, outChannels)
		}
		r, ok := shuffleFactor(shuffled / outChannels)
		if !ok {
			return 0, "", badShape(tag, key, "%d channels is not a pixel shuffle of %d", shuffled, outChannels)
		}
		return r, "pixelshuffledirect", nil
	}

	// pixelshuffle: each conv expands num_feat by r^2, then shuffles.
	// Shapeless convs count as x2.
	scale := 1
	for _, i := range convs {
		key := indexedKey("upsample.", i, ".weight")
		out, in, ok, err := convChannels(tag, sd, key)
		if err != nil {
			return 0, "", err
		}
		r := 2
		if ok {
			if out%in != 0 {
				return 0, "", badShape(tag, key, "%d channels not divisible by %d", out, in)
			}
			if r, ok = shuffleFactor(out / in); !ok {
				return 0, "", badShape(tag, key, "%d channels is not a pixel shuffle of %d", out, in)
			}
		}
		scale *= r
		if scale > 1<<maxUpsamples {
			return 0, "", badShape(tag, key, "upsampler exceeds x%d", 1<<maxUpsamples)
		}
	}
	return scale, "pixelshuffle", nil
}
