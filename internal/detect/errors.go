package detect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/archid/internal/arch"
)

// ErrUnsupportedModel is the terminal failure: no signature matched and the
// fallback family rejected the mapping.
var ErrUnsupportedModel = errors.New("unsupported model")

// ErrorKind classifies detection failures.
type ErrorKind int

// Error kinds.
const (
	// NoSignatureMatched means no rule fired. It only triggers the fallback
	// and is never returned to callers.
	NoSignatureMatched ErrorKind = iota
	// FallbackFailed means the fallback constructor rejected the mapping.
	// It is reported as ErrUnsupportedModel.
	FallbackFailed
	// MatchedConstructionFailed means a rule fired but its constructor
	// rejected the mapping: the architecture was recognized, the
	// checkpoint is invalid.
	MatchedConstructionFailed
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case NoSignatureMatched:
		return "no_signature_matched"
	case FallbackFailed:
		return "fallback_failed"
	case MatchedConstructionFailed:
		return "matched_construction_failed"
	default:
		return "unknown"
	}
}

// DetectionError reports a failed detection.
type DetectionError struct {
	Kind  ErrorKind
	Tag   arch.Tag // Tag whose constructor failed
	Rule  string   // Matched rule name, empty for FallbackFailed
	Err   error    // Constructor error, passed through unchanged
	Hints []string // Signature keys resembling keys in the mapping (FallbackFailed only)
}

// Error implements the error interface.
func (e *DetectionError) Error() string {
	switch e.Kind {
	case FallbackFailed:
		msg := fmt.Sprintf("%v: no known signature and %s fallback failed: %v", ErrUnsupportedModel, e.Tag, e.Err)
		if len(e.Hints) > 0 {
			msg += fmt.Sprintf(" (similar signature keys: %s)", strings.Join(e.Hints, ", "))
		}
		return msg
	case MatchedConstructionFailed:
		return fmt.Sprintf("detected %s (rule %q) but construction failed: %v", e.Tag, e.Rule, e.Err)
	default:
		return fmt.Sprintf("detection failed (%s): %v", e.Kind, e.Err)
	}
}

// Unwrap returns the constructor error.
func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Is makes FallbackFailed errors match ErrUnsupportedModel.
func (e *DetectionError) Is(target error) bool {
	return target == ErrUnsupportedModel && e.Kind == FallbackFailed
}

// IsUnsupported reports whether err is the terminal unsupported-model failure.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedModel)
}

// KindOf returns the kind of a *DetectionError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *DetectionError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
