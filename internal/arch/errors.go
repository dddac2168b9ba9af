package arch

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrMissingKey    = errors.New("required key missing")
	ErrShapeMismatch = errors.New("unexpected tensor shape")
	ErrUnknownTag    = errors.New("unknown architecture tag")
)

// ConstructionError describes why a constructor rejected a parameter mapping.
type ConstructionError struct {
	Tag     Tag    // Family whose constructor failed
	Key     string // Parameter key involved, if any
	Details string // Additional details
	Err     error  // ErrMissingKey or ErrShapeMismatch
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tag, e.Err)
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Unwrap returns the underlying sentinel.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func missingKey(tag Tag, key string) error {
	return &ConstructionError{Tag: tag, Key: key, Err: ErrMissingKey}
}

func badShape(tag Tag, key, format string, args ...any) error {
	return &ConstructionError{Tag: tag, Key: key, Details: fmt.Sprintf(format, args...), Err: ErrShapeMismatch}
}
