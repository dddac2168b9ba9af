package arch

import (
	"github.com/born-ml/archid/internal/statedict"
)

// newSwiftSRGAN builds a Swift-SRGAN generator. Its weights live under a
// nested "model" mapping and every conv is depthwise-separable.
func newSwiftSRGAN(sd statedict.StateDict) (*Model, error) {
	inner, ok := sd.Sub("model")
	if !ok {
		return nil, missingKey(SwiftSRGAN, "model")
	}
	if err := requireKeys(SwiftSRGAN, inner, "initial.cnn.depthwise.weight"); err != nil {
		return nil, err
	}

	m := newModel(SwiftSRGAN, sd)
	m.Features = 64
	m.Blocks = len(inner.Indices("residual.", ".block1.cnn.depthwise.weight"))

	// Depthwise convs have one filter per input channel: [in, 1, k, k].
	s, ok, err := shapeOf(SwiftSRGAN, inner, "initial.cnn.depthwise.weight", 4)
	if err != nil {
		return nil, err
	}
	if ok {
		m.InChannels, m.OutChannels = s[0], s[0]
	}
	if inner.Has("initial.cnn.pointwise.weight") {
		feat, _, ok, err := convChannels(SwiftSRGAN, inner, "initial.cnn.pointwise.weight")
		if err != nil {
			return nil, err
		}
		if ok {
			m.Features = feat
		}
	}

	// Each upsampler block doubles the resolution.
	ups := len(inner.Indices("upsampler.", ".conv.depthwise.weight"))
	if ups == 0 {
		m.Scale = 4
		return m, nil
	}
	scale, err := upscale(SwiftSRGAN, "model/upsampler.0.conv.depthwise.weight", ups)
	if err != nil {
		return nil, err
	}
	m.Scale = scale
	return m, nil
}

// newOmniSR builds an Omni-SR model. Checkpoints saved after profiling
// keep the counters ("total_ops", "total_params") next to the weights.
func newOmniSR(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(OmniSR, sd, "input.weight", "up.0.weight"); err != nil {
		return nil, err
	}

	m := newModel(OmniSR, sd)
	m.Features = 64
	m.Blocks = len(sd.Indices("residual_layer.", ".total_ops"))
	m.Scale = 4

	feat, in, ok, err := convChannels(OmniSR, sd, "input.weight")
	if err != nil {
		return nil, err
	}
	if !ok {
		return m, nil
	}
	m.Features, m.InChannels, m.OutChannels = feat, in, in

	shuffled, _, ok, err := convChannels(OmniSR, sd, "up.0.weight")
	if err != nil {
		return nil, err
	}
	if ok {
		if shuffled%in != 0 {
			return nil, badShape(OmniSR, "up.0.weight", "%d channels not divisible by %d", shuffled, in)
		}
		r, ok := shuffleFactor(shuffled / in)
		if !ok {
			return nil, badShape(OmniSR, "up.0.weight", "%d channels is not a pixel shuffle of %d", shuffled, in)
		}
		m.Scale = r
	}
	return m, nil
}
