package arch

import (
	"fmt"

	"github.com/born-ml/archid/internal/statedict"
)

// Face restoration models work on aligned 512x512 crops and return an
// image of the same size.

func newGFPGAN(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(GFPGAN, sd,
		"conv_body_first.weight",
		"toRGB.0.weight",
		"stylegan_decoder.style_mlp.1.weight",
	); err != nil {
		return nil, err
	}

	m := newModel(GFPGAN, sd)
	m.SubType = "v1-clean"
	m.Blocks = len(sd.Indices("toRGB.", ".weight"))

	feat, in, ok, err := convChannels(GFPGAN, sd, "conv_body_first.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		m.Features, m.InChannels = feat, in
	}
	return m, nil
}

func newRestoreFormer(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(RestoreFormer, sd, "encoder.conv_in.weight", "encoder.down.0.block.0.norm1.weight"); err != nil {
		return nil, err
	}

	m := newModel(RestoreFormer, sd)
	m.Blocks = len(sd.Indices("encoder.down.", ".block.0.norm1.weight"))

	feat, in, ok, err := convChannels(RestoreFormer, sd, "encoder.conv_in.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		m.Features, m.InChannels, m.OutChannels = feat, in, in
	}
	if sd.Has("decoder.conv_out.weight") {
		out, _, ok, err := convChannels(RestoreFormer, sd, "decoder.conv_out.weight")
		if err != nil {
			return nil, err
		}
		if ok {
			m.OutChannels = out
		}
	}
	return m, nil
}

func newCodeFormer(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(CodeFormer, sd, "encoder.blocks.0.weight", "quantize.embedding.weight"); err != nil {
		return nil, err
	}

	m := newModel(CodeFormer, sd)
	m.Blocks = len(sd.Indices("ft_layers.", ".self_attn.in_proj_weight"))

	feat, in, ok, err := convChannels(CodeFormer, sd, "encoder.blocks.0.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		m.Features, m.InChannels, m.OutChannels = feat, in, in
	}

	// Codebook: [codebook_size, embed_dim].
	book, ok, err := shapeOf(CodeFormer, sd, "quantize.embedding.weight", 2)
	if err != nil {
		return nil, err
	}
	if ok {
		m.SubType = fmt.Sprintf("codebook %dx%d", book[0], book[1])
	}
	return m, nil
}
