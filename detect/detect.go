// Package detect identifies the network architecture of an image model
// checkpoint from its parameter names and builds a model descriptor for it.
//
// This package wraps the internal detection implementation and exports a
// clean public API.
//
// Example usage:
//
//	import "github.com/born-ml/archid/detect"
//
//	sd, err := detect.OpenCheckpoint("4x_RealESRGAN.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := detect.DetectAndLoad(sd)
//	switch {
//	case detect.IsUnsupported(err):
//	    log.Fatalf("unknown architecture: %v", err)
//	case err != nil:
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s x%d\n", res.Tag, res.Model.Scale)
package detect

import (
	"github.com/born-ml/archid/internal/arch"
	"github.com/born-ml/archid/internal/checkpoint"
	"github.com/born-ml/archid/internal/detect"
	"github.com/born-ml/archid/internal/statedict"
)

// StateDict maps parameter names to tensors or nested mappings.
type StateDict = statedict.StateDict

// TensorInfo describes a tensor by dtype and shape only.
type TensorInfo = statedict.TensorInfo

// Shape is a tensor shape.
type Shape = statedict.Shape

// Tag identifies an architecture family.
type Tag = arch.Tag

// Architecture tags.
const (
	TagUnknown    Tag = arch.TagUnknown
	SRVGGCompact  Tag = arch.SRVGGCompact
	SPSR          Tag = arch.SPSR
	SwiftSRGAN    Tag = arch.SwiftSRGAN
	HAT           Tag = arch.HAT
	Swin2SR       Tag = arch.Swin2SR
	SwinIR        Tag = arch.SwinIR
	GFPGAN        Tag = arch.GFPGAN
	RestoreFormer Tag = arch.RestoreFormer
	CodeFormer    Tag = arch.CodeFormer
	LaMa          Tag = arch.LaMa
	MAT           Tag = arch.MAT
	OmniSR        Tag = arch.OmniSR
	ESRGAN        Tag = arch.ESRGAN
)

// Model is a constructed architecture descriptor.
type Model = arch.Model

// Constructor builds a Model from a normalized mapping.
type Constructor = arch.Constructor

// Result is a successful detection.
type Result = detect.Result

// Detector identifies architectures. The zero value is not usable; call New.
type Detector = detect.Detector

// Option configures a Detector.
type Option = detect.Option

// Predicate is a structural test over a mapping's keys.
type Predicate = detect.Predicate

// Rule binds a predicate to an architecture tag.
type Rule = detect.Rule

// Registry is an ordered rule list evaluated first-match-wins.
type Registry = detect.Registry

// DetectionError reports a failed detection.
type DetectionError = detect.DetectionError

// ErrorKind classifies detection failures.
type ErrorKind = detect.ErrorKind

// Error kinds.
const (
	NoSignatureMatched        ErrorKind = detect.NoSignatureMatched
	FallbackFailed            ErrorKind = detect.FallbackFailed
	MatchedConstructionFailed ErrorKind = detect.MatchedConstructionFailed
)

// ConstructionError reports why a constructor rejected a mapping.
type ConstructionError = arch.ConstructionError

// Errors.
var (
	ErrUnsupportedModel  = detect.ErrUnsupportedModel
	ErrMissingKey        = arch.ErrMissingKey
	ErrShapeMismatch     = arch.ErrShapeMismatch
	ErrUnsupportedFormat = checkpoint.ErrUnsupportedFormat
)

// DetectAndLoad identifies the architecture of sd with the built-in rules
// and constructs the model. Wrapper keys (params_ema, params-ema, params)
// are stripped first.
func DetectAndLoad(sd StateDict) (*Result, error) {
	return detect.DetectAndLoad(sd)
}

// Match normalizes sd and returns the first built-in rule that fires,
// without constructing a model.
func Match(sd StateDict) (Rule, bool) {
	return DefaultRegistry().Match(Normalize(sd))
}

// New creates a detector. Without options it behaves like DetectAndLoad.
func New(opts ...Option) *Detector {
	return detect.New(opts...)
}

// WithRegistry replaces the built-in rules. A nil registry is ignored.
var WithRegistry = detect.WithRegistry

// WithConstructor overrides the constructor bound to a tag.
var WithConstructor = detect.WithConstructor

// WithFallback changes the family tried when no rule matches.
var WithFallback = detect.WithFallback

// WithLogger sets the logger used for debug tracing.
var WithLogger = detect.WithLogger

// Normalize strips one level of wrapper key.
func Normalize(sd StateDict) StateDict {
	return statedict.Normalize(sd)
}

// DefaultRegistry returns the built-in rules.
func DefaultRegistry() *Registry {
	return detect.DefaultRegistry()
}

// NewRegistry builds a registry from rules in strictly increasing priority.
func NewRegistry(rules ...Rule) (*Registry, error) {
	return detect.NewRegistry(rules...)
}

// Predicate constructors.
var (
	HasKey    = detect.HasKey
	HasAll    = detect.HasAll
	HasAny    = detect.HasAny
	HasNested = detect.HasNested
	And       = detect.And
	Or        = detect.Or
	Not       = detect.Not
)

// IsUnsupported reports whether err is ErrUnsupportedModel.
func IsUnsupported(err error) bool {
	return detect.IsUnsupported(err)
}

// KindOf returns the kind of a *DetectionError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	return detect.KindOf(err)
}

// ParseTag looks up a tag by name, case-insensitively.
func ParseTag(name string) (Tag, error) {
	return arch.ParseTag(name)
}

// OpenCheckpoint reads the parameter names and shapes of a checkpoint.
//
// Supported formats:
//   - .safetensors (header only)
//   - .yaml, .yml, .json key manifests
func OpenCheckpoint(path string) (StateDict, error) {
	return checkpoint.Open(path)
}
