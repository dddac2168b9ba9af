// Package checkpoint turns checkpoint files into parameter mappings for
// detection.
//
// Only tensor names and shapes are read:
//   - .safetensors: the JSON header (weights are skipped)
//   - .yaml, .yml, .json: a key manifest (see ReadManifest)
//
// Example:
//
//	sd, err := checkpoint.Open("4x_model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := detect.DetectAndLoad(sd)
package checkpoint

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/born-ml/archid/internal/statedict"
)

// Common errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported checkpoint format")
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
)

// ManifestError reports a malformed key manifest entry.
type ManifestError struct {
	Line    int    // 1-based line in the manifest
	Path    string // Slash-separated key path, e.g. "params/body.0.weight"
	Details string
}

// Error implements the error interface.
func (e *ManifestError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("manifest line %d: %q: %s", e.Line, e.Path, e.Details)
	}
	return fmt.Sprintf("manifest line %d: %s", e.Line, e.Details)
}

// Format identifies a checkpoint container.
type Format int

// Supported formats.
const (
	FormatUnknown Format = iota
	FormatSafeTensors
	FormatManifest
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatSafeTensors:
		return "SafeTensors"
	case FormatManifest:
		return "Manifest"
	default:
		return "Unknown"
	}
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		return FormatSafeTensors
	case ".yaml", ".yml", ".json":
		return FormatManifest
	default:
		return FormatUnknown
	}
}

// Open reads the parameter mapping of a checkpoint file.
func Open(path string) (statedict.StateDict, error) {
	switch DetectFormat(path) {
	case FormatSafeTensors:
		return OpenSafeTensors(path)
	case FormatManifest:
		return OpenManifest(path)
	default:
		return nil, fmt.Errorf("%w: %s (expected .safetensors, .yaml, .yml or .json)",
			ErrUnsupportedFormat, filepath.Ext(path))
	}
}
