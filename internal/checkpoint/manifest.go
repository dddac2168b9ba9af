package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/archid/internal/statedict"
)

// A key manifest describes a parameter mapping without weights. It is
// YAML (JSON is a subset), one entry per parameter:
//
//	params_ema:
//	  body.0.weight: [64, 3, 3, 3]
//	  body.1.weight: [64]
//	  body.2.weight: {dtype: F16, shape: [48, 64, 3, 3]}
//	  step: null
//
// A nested mapping without a "shape" key is a sub-mapping. A list of
// integers is a shape; null is a tensor of unknown shape. Aliases are
// expanded in place; an alias back into its own mapping is rejected.

// ReadManifest decodes a key manifest.
func ReadManifest(r io.Reader) (statedict.StateDict, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return statedict.StateDict{}, nil
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return statedict.StateDict{}, nil
	}
	dec := &manifestDecoder{active: make(map[*yaml.Node]bool)}
	return dec.mapping(root.Content[0], "")
}

// OpenManifest reads a key manifest file.
func OpenManifest(path string) (statedict.StateDict, error) {
	//nolint:gosec // G304: File path comes from user input
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sd, err := ReadManifest(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sd, nil
}

// tensorEntry is the long form of a manifest leaf.
type tensorEntry struct {
	DType statedict.DType `yaml:"dtype"`
	Shape []int           `yaml:"shape"`
}

// MaxManifestEntries bounds the decoded entries of a manifest, counting
// every alias expansion.
const MaxManifestEntries = 1 << 18

type manifestDecoder struct {
	active  map[*yaml.Node]bool // Mappings on the current decode path
	entries int
}

func (d *manifestDecoder) mapping(node *yaml.Node, path string) (statedict.StateDict, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return statedict.StateDict{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, manifestError(node, path, "expected a mapping")
	}
	// Only an alias can lead back to a mapping that is still open.
	if d.active[node] {
		return nil, manifestError(node, path, "recursive alias")
	}
	d.active[node] = true
	defer delete(d.active, node)

	sd := make(statedict.StateDict, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		if _, dup := sd[key]; dup {
			return nil, manifestError(keyNode, join(path, key), "duplicate key")
		}

		d.entries++
		if d.entries > MaxManifestEntries {
			return nil, manifestError(keyNode, join(path, key), "more than %d entries", MaxManifestEntries)
		}

		val, err := d.value(valNode, join(path, key))
		if err != nil {
			return nil, err
		}
		sd[key] = val
	}
	return sd, nil
}

func (d *manifestDecoder) value(node *yaml.Node, path string) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return nil, manifestError(node, path, "scalar %q is not a shape", node.Value)

	case yaml.SequenceNode:
		var dims []int
		if err := node.Decode(&dims); err != nil {
			return nil, manifestError(node, path, "shape must be a list of integers")
		}
		return statedict.TensorInfo{Shape: statedict.Shape(dims)}, nil

	case yaml.MappingNode:
		if isTensorEntry(node) {
			var entry tensorEntry
			if err := node.Decode(&entry); err != nil {
				return nil, manifestError(node, path, "invalid tensor entry: %v", err)
			}
			return statedict.TensorInfo{DType: entry.DType, Shape: statedict.Shape(entry.Shape)}, nil
		}
		return d.mapping(node, path)

	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, manifestError(node, path, "unknown alias *%s", node.Value)
		}
		return d.value(node.Alias, path)

	default:
		return nil, manifestError(node, path, "unsupported node")
	}
}

// isTensorEntry reports whether a mapping is the long form {dtype, shape}.
func isTensorEntry(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "shape" && node.Content[i+1].Kind == yaml.SequenceNode {
			return true
		}
	}
	return false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}

func manifestError(node *yaml.Node, path, format string, args ...any) error {
	return &ManifestError{Line: node.Line, Path: path, Details: fmt.Sprintf(format, args...)}
}
