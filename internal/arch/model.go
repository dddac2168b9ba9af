package arch

import (
	"fmt"
	"strconv"

	"github.com/born-ml/archid/internal/statedict"
)

// Model is an architecture instance bound to a parameter mapping.
type Model struct {
	Tag         Tag
	Purpose     Purpose
	SubType     string // Layout variant within the family, e.g. "real-esrgan"
	Scale       int    // Upscale factor, 1 for restoration and inpainting
	InChannels  int
	OutChannels int
	Features    int // Width of the first feature layer
	Blocks      int // Number of trunk blocks or groups

	StateDict statedict.StateDict
}

// String returns a short human-readable description.
func (m *Model) String() string {
	name := m.Tag.String()
	if m.SubType != "" {
		name += " (" + m.SubType + ")"
	}
	return fmt.Sprintf("%s %s x%d in=%d out=%d nf=%d", name, m.Purpose, m.Scale, m.InChannels, m.OutChannels, m.Features)
}

// Constructor builds a Model from a normalized parameter mapping or fails
// with a *ConstructionError.
type Constructor func(sd statedict.StateDict) (*Model, error)

// ConstructorFor returns the constructor bound to tag.
func ConstructorFor(tag Tag) (Constructor, error) {
	switch tag {
	case SRVGGCompact:
		return newSRVGGCompact, nil
	case SPSR:
		return newSPSR, nil
	case SwiftSRGAN:
		return newSwiftSRGAN, nil
	case HAT:
		return newHAT, nil
	case Swin2SR:
		return newSwin2SR, nil
	case SwinIR:
		return newSwinIR, nil
	case GFPGAN:
		return newGFPGAN, nil
	case RestoreFormer:
		return newRestoreFormer, nil
	case CodeFormer:
		return newCodeFormer, nil
	case LaMa:
		return newLaMa, nil
	case MAT:
		return newMAT, nil
	case OmniSR:
		return newOmniSR, nil
	case ESRGAN:
		return newESRGAN, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, int(tag))
	}
}

// Construct builds the model for tag.
func Construct(tag Tag, sd statedict.StateDict) (*Model, error) {
	ctor, err := ConstructorFor(tag)
	if err != nil {
		return nil, err
	}
	return ctor(sd)
}

// newModel returns a model with family defaults filled in.
func newModel(tag Tag, sd statedict.StateDict) *Model {
	return &Model{
		Tag:         tag,
		Purpose:     tag.Purpose(),
		Scale:       1,
		InChannels:  3,
		OutChannels: 3,
		StateDict:   sd,
	}
}

// requireKeys fails with ErrMissingKey for the first absent key.
func requireKeys(tag Tag, sd statedict.StateDict, keys ...string) error {
	for _, key := range keys {
		if !sd.Has(key) {
			return missingKey(tag, key)
		}
	}
	return nil
}

// shapeOf returns the shape under key, checked against rank.
// A present but shapeless value yields ok=false and no error.
func shapeOf(tag Tag, sd statedict.StateDict, key string, rank int) (statedict.Shape, bool, error) {
	if !sd.Has(key) {
		return nil, false, missingKey(tag, key)
	}
	s, ok := sd.ShapeOf(key)
	if !ok {
		return nil, false, nil
	}
	if s.Rank() != rank {
		return nil, false, badShape(tag, key, "expected rank %d, got %v", rank, s)
	}
	if err := s.Validate(); err != nil {
		return nil, false, badShape(tag, key, "%v", err)
	}
	return s, true, nil
}

// convChannels reads a rank-4 conv weight [out, in, kh, kw].
func convChannels(tag Tag, sd statedict.StateDict, key string) (out, in int, ok bool, err error) {
	s, ok, err := shapeOf(tag, sd, key, 4)
	if err != nil || !ok {
		return 0, 0, false, err
	}
	return s[0], s[1], true, nil
}

// shuffleFactor returns r such that ratio == r*r, as used by pixel shuffle.
func shuffleFactor(ratio int) (int, bool) {
	if ratio < 1 {
		return 0, false
	}
	for r := 1; r*r <= ratio; r++ {
		if r*r == ratio {
			return r, true
		}
	}
	return 0, false
}

// maxUpsamples bounds chains of x2 upsampling stages (x16).
const maxUpsamples = 4

// upscale returns 2^ups for a chain of x2 upsampling stages.
func upscale(tag Tag, key string, ups int) (int, error) {
	if ups < 0 || ups > maxUpsamples {
		return 0, badShape(tag, key, "%d upsampling stages, at most %d supported", ups, maxUpsamples)
	}
	return 1 << ups, nil
}

func indexedKey(prefix string, i int, suffix string) string {
	return prefix + strconv.Itoa(i) + suffix
}
