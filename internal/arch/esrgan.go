package arch

import (
	"github.com/born-ml/archid/internal/statedict"
)

// ESRGAN layouts.
//
// Old arch (original ESRGAN repo):
//   - model.0.weight -> conv_first
//   - model.1.sub.{i}.RDB1.conv1.0.weight -> trunk blocks
//   - model.{3,6,...}.weight -> upconvs, model.{max}.weight -> conv_last
//
// New arch (BasicSR, early):
//   - conv_first.weight, RRDB_trunk.{i}.RDB1.conv1.weight, upconv{n}.weight
//
// Real-ESRGAN (BasicSR, current):
//   - conv_first.weight, body.{i}.rdb1.conv1.weight, conv_up{n}.weight
//     with pixel-unshuffled input for x1 and x2 models
const (
	esrganOldArch  = "old-arch"
	esrganNewArch  = "new-arch"
	esrganRealArch = "real-esrgan"
)

func newESRGAN(sd statedict.StateDict) (*Model, error) {
	switch {
	case sd.Has("model.0.weight"):
		return newESRGANOld(sd)
	case sd.Has("conv_first.weight") && len(sd.Indices("RRDB_trunk.", ".RDB1.conv1.weight")) > 0:
		return newESRGANBasicSR(sd, esrganNewArch, "RRDB_trunk.", ".RDB1.conv1.weight", "upconv")
	case sd.Has("conv_first.weight") && len(sd.Indices("body.", ".rdb1.conv1.weight")) > 0:
		return newESRGANBasicSR(sd, esrganRealArch, "body.", ".rdb1.conv1.weight", "conv_up")
	case sd.Has("conv_first.weight"):
		return nil, &ConstructionError{Tag: ESRGAN, Key: "RRDB_trunk.0.RDB1.conv1.weight", Details: "no RRDB trunk found", Err: ErrMissingKey}
	default:
		return nil, &ConstructionError{Tag: ESRGAN, Key: "model.0.weight", Details: "no known RRDB layout", Err: ErrMissingKey}
	}
}

func newESRGANOld(sd statedict.StateDict) (*Model, error) {
	m := newModel(ESRGAN, sd)
	m.SubType = esrganOldArch
	m.Features = 64

	m.Blocks = len(sd.Indices("model.1.sub.", ".RDB1.conv1.0.weight"))
	if m.Blocks == 0 {
		return nil, missingKey(ESRGAN, "model.1.sub.0.RDB1.conv1.0.weight")
	}

	if err := fillOldArchIO(ESRGAN, sd, m); err != nil {
		return nil, err
	}
	return m, nil
}

// fillOldArchIO reads channels and scale from the sequential "model.N"
// layout of old-arch ESRGAN.
func fillOldArchIO(tag Tag, sd statedict.StateDict, m *Model) error {
	last := sd.MaxIndex("model.", ".weight")
	if last < 2 {
		return badShape(tag, "model.0.weight", "sequential model too short (last conv index %d)", last)
	}

	feat, in, ok, err := convChannels(tag, sd, "model.0.weight")
	if err != nil {
		return err
	}
	if ok {
		m.Features, m.InChannels = feat, in
		m.OutChannels = in
	}

	if out, _, ok, err := convChannels(tag, sd, indexedKey("model.", last, ".weight")); err != nil {
		return err
	} else if ok {
		m.OutChannels = out
	}

	// Upconvs sit between the trunk (model.1) and the HR conv (model.last-2).
	ups := 0
	for _, i := range sd.Indices("model.", ".weight") {
		if i > 1 && i < last-2 {
			ups++
		}
	}
	scale, err := upscale(tag, indexedKey("model.", last, ".weight"), ups)
	if err != nil {
		return err
	}
	m.Scale = scale
	return nil
}

func newESRGANBasicSR(sd statedict.StateDict, subType, trunkPrefix, trunkSuffix, upPrefix string) (*Model, error) {
	m := newModel(ESRGAN, sd)
	m.SubType = subType
	m.Features = 64
	m.Blocks = len(sd.Indices(trunkPrefix, trunkSuffix))

	if err := requireKeys(ESRGAN, sd, "conv_last.weight"); err != nil {
		return nil, err
	}

	feat, in, ok, err := convChannels(ESRGAN, sd, "conv_first.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		m.Features, m.InChannels = feat, in
		m.OutChannels = in
	}
	if out, _, ok, err := convChannels(ESRGAN, sd, "conv_last.weight"); err != nil {
		return nil, err
	} else if ok {
		m.OutChannels = out
	}

	scale, err := upscale(ESRGAN, upPrefix+"1.weight", len(sd.Indices(upPrefix, ".weight")))
	if err != nil {
		return nil, err
	}
	m.Scale = scale

	// Real-ESRGAN x1/x2 models pixel-unshuffle the input before conv_first.
	if m.InChannels > m.OutChannels && m.InChannels%m.OutChannels == 0 {
		r, ok := shuffleFactor(m.InChannels / m.OutChannels)
		if !ok || m.Scale%r != 0 {
			return nil, badShape(ESRGAN, "conv_first.weight",
				"%d input channels do not match %d output channels at x%d", m.InChannels, m.OutChannels, m.Scale)
		}
		m.InChannels /= r * r
		m.Scale /= r
	}
	return m, nil
}

func newSPSR(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(SPSR, sd, "model.0.weight", "f_HR_conv1.0.weight"); err != nil {
		return nil, err
	}

	m := newModel(SPSR, sd)
	m.Features = 64
	m.Blocks = len(sd.Indices("model.1.sub.", ".RDB1.conv1.0.weight"))

	feat, in, ok, err := convChannels(SPSR, sd, "model.0.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		m.Features, m.InChannels = feat, in
		m.OutChannels = in
	}

	// The fused gradient branch produces the final image.
	if out, _, ok, err := convChannels(SPSR, sd, "f_HR_conv1.0.weight"); err != nil {
		return nil, err
	} else if ok {
		m.OutChannels = out
	}

	// Upconvs start at model.3 and the HR conv closes the trunk, so the
	// convs past model.4 number one per doubling.
	ups := 0
	for _, i := range sd.Indices("model.", ".weight") {
		if i > 4 {
			ups++
		}
	}
	scale, err := upscale(SPSR, "model.3.weight", ups)
	if err != nil {
		return nil, err
	}
	m.Scale = scale
	return m, nil
}
