// Package arch defines the supported architecture families and the
// constructors that bind a parameter mapping to a typed Model.
//
// Supported families:
//   - Super-resolution: ESRGAN (old, new and Real-ESRGAN layouts),
//     Real-ESRGAN Compact (SRVGGNet), SPSR, Swift-SRGAN, SwinIR, Swin2SR,
//     HAT, OmniSR
//   - Face restoration: GFPGAN, RestoreFormer, CodeFormer
//   - Inpainting: LaMa, MAT
//
// Constructors validate only what they need to pick and describe a
// variant: required keys, tensor ranks, channels and scale. Weight values
// are never inspected.
package arch

import (
	"fmt"
	"strings"
)

// Tag identifies an architecture family.
type Tag int

// Architecture tags. TagUnknown is never produced by detection.
const (
	TagUnknown Tag = iota
	SRVGGCompact
	SPSR
	SwiftSRGAN
	HAT
	Swin2SR
	SwinIR
	GFPGAN
	RestoreFormer
	CodeFormer
	LaMa
	MAT
	OmniSR
	ESRGAN
)

// Purpose is the task an architecture family is built for.
type Purpose int

// Purposes.
const (
	PurposeSR Purpose = iota
	PurposeFaceSR
	PurposeInpaint
)

// String returns the purpose name.
func (p Purpose) String() string {
	switch p {
	case PurposeSR:
		return "SR"
	case PurposeFaceSR:
		return "FaceSR"
	case PurposeInpaint:
		return "Inpaint"
	default:
		return "Unknown"
	}
}

// String returns the family name.
func (t Tag) String() string {
	switch t {
	case SRVGGCompact:
		return "RealESRGAN-Compact"
	case SPSR:
		return "SPSR"
	case SwiftSRGAN:
		return "SwiftSRGAN"
	case HAT:
		return "HAT"
	case Swin2SR:
		return "Swin2SR"
	case SwinIR:
		return "SwinIR"
	case GFPGAN:
		return "GFPGAN"
	case RestoreFormer:
		return "RestoreFormer"
	case CodeFormer:
		return "CodeFormer"
	case LaMa:
		return "LaMa"
	case MAT:
		return "MAT"
	case OmniSR:
		return "OmniSR"
	case ESRGAN:
		return "ESRGAN"
	default:
		return "Unknown"
	}
}

// Purpose returns the task the family is built for.
func (t Tag) Purpose() Purpose {
	switch t {
	case GFPGAN, RestoreFormer, CodeFormer:
		return PurposeFaceSR
	case LaMa, MAT:
		return PurposeInpaint
	default:
		return PurposeSR
	}
}

// Valid reports whether t is one of the known families.
func (t Tag) Valid() bool {
	return t > TagUnknown && t <= ESRGAN
}

// Tags returns every known tag in declaration order.
func Tags() []Tag {
	tags := make([]Tag, 0, int(ESRGAN))
	for t := SRVGGCompact; t <= ESRGAN; t++ {
		tags = append(tags, t)
	}
	return tags
}

// ParseTag looks up a tag by name, case-insensitively.
func ParseTag(name string) (Tag, error) {
	for _, t := range Tags() {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return TagUnknown, fmt.Errorf("%w: %q", ErrUnknownTag, name)
}
