package arch

import (
	"github.com/born-ml/archid/internal/statedict"
)

// Inpainting models take the image plus a one-channel mask.
const inpaintInChannels = 4

func newLaMa(sd statedict.StateDict) (*Model, error) {
	var prefix string
	switch {
	case sd.Has("model.model.1.bn_l.running_mean"):
		prefix = "model."
	case sd.Has("generator.model.1.bn_l.running_mean"):
		prefix = "generator."
	default:
		return nil, missingKey(LaMa, "model.model.1.bn_l.running_mean")
	}

	m := newModel(LaMa, sd)
	m.SubType = prefix[:len(prefix)-1]
	m.InChannels = inpaintInChannels
	m.Features = 64

	// model.1 is the first fast Fourier conv block; its local-to-local
	// branch sees the raw input.
	key := prefix + "model.1.ffc.convl2l.weight"
	if sd.Has(key) {
		_, in, ok, err := convChannels(LaMa, sd, key)
		if err != nil {
			return nil, err
		}
		if ok {
			m.InChannels = in
		}
	}
	return m, nil
}

func newMAT(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(MAT, sd, "synthesis.first_stage.conv_first.conv.resample_filter"); err != nil {
		return nil, err
	}

	m := newModel(MAT, sd)
	m.InChannels = inpaintInChannels
	m.Features = 180

	if sd.Has("synthesis.first_stage.conv_first.conv.weight") {
		feat, in, ok, err := convChannels(MAT, sd, "synthesis.first_stage.conv_first.conv.weight")
		if err != nil {
			return nil, err
		}
		if ok {
			m.Features, m.InChannels = feat, in
		}
	}
	return m, nil
}
