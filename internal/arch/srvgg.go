package arch

import (
	"github.com/born-ml/archid/internal/statedict"
)

// newSRVGGCompact builds a Real-ESRGAN Compact (SRVGGNetCompact) model.
//
// The body is a flat list: conv, act, (conv, act) * num_conv, conv_last.
// Activations (PReLU) carry weights too, so body.{2n+2}.weight is the last
// conv and its output is out_nc * scale^2 channels before pixel shuffle.
func newSRVGGCompact(sd statedict.StateDict) (*Model, error) {
	if err := requireKeys(SRVGGCompact, sd, "body.0.weight"); err != nil {
		return nil, err
	}

	last := sd.MaxIndex("body.", ".weight")
	if last < 2 || last%2 != 0 {
		return nil, badShape(SRVGGCompact, indexedKey("body.", last, ".weight"),
			"last body layer must be an even index >= 2, got %d", last)
	}

	m := newModel(SRVGGCompact, sd)
	m.Features = 64
	m.Blocks = (last - 2) / 2
	m.Scale = 4

	feat, in, ok, err := convChannels(SRVGGCompact, sd, "body.0.weight")
	if err != nil {
		return nil, err
	}
	if !ok {
		return m, nil
	}
	m.Features, m.InChannels, m.OutChannels = feat, in, in

	lastKey := indexedKey("body.", last, ".weight")
	shuffled, _, ok, err := convChannels(SRVGGCompact, sd, lastKey)
	if err != nil {
		return nil, err
	}
	if ok {
		if shuffled%m.OutChannels != 0 {
			return nil, badShape(SRVGGCompact, lastKey, "%d channels not divisible by %d", shuffled, m.OutChannels)
		}
		scale, ok := shuffleFactor(shuffled / m.OutChannels)
		if !ok {
			return nil, badShape(SRVGGCompact, lastKey, "%d channels is not a pixel shuffle of %d", shuffled, m.OutChannels)
		}
		m.Scale = scale
	}
	return m, nil
}
