package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/archid/internal/statedict"
)

// createTestSafeTensorsFile writes a minimal SafeTensors file for testing.
func createTestSafeTensorsFile(t *testing.T, path string, tensors map[string]SafeTensorInfo) {
	t.Helper()

	headerMap := make(map[string]interface{})
	headerMap["__metadata__"] = map[string]string{"format": "pt"}
	var dataSize int64
	for name, info := range tensors {
		headerMap[name] = info
		if info.DataOffsets[1] > dataSize {
			dataSize = info.DataOffsets[1]
		}
	}

	headerJSON, err := json.Marshal(headerMap)
	require.NoError(t, err)

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))))
	_, err = file.Write(headerJSON)
	require.NoError(t, err)
	_, err = file.Write(make([]byte, dataSize))
	require.NoError(t, err)
}

func TestOpenSafeTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "4x_compact.safetensors")
	createTestSafeTensorsFile(t, path, map[string]SafeTensorInfo{
		"body.0.weight": {DType: statedict.F32, Shape: []int{64, 3, 3, 3}, DataOffsets: [2]int64{0, 6912}},
		"body.1.weight": {DType: statedict.F32, Shape: []int{64}, DataOffsets: [2]int64{6912, 7168}},
	})

	sd, err := Open(path)
	require.NoError(t, err)
	require.Len(t, sd, 2)

	s, ok := sd.ShapeOf("body.0.weight")
	require.True(t, ok)
	assert.Equal(t, statedict.Shape{64, 3, 3, 3}, s)

	info, ok := sd["body.1.weight"].(statedict.TensorInfo)
	require.True(t, ok)
	assert.Equal(t, statedict.F32, info.DType)
	assert.False(t, sd.Has("__metadata__"))
}

func TestReadSafeTensorsHeader_Metadata(t *testing.T) {
	header := []byte(`{"__metadata__":{"format":"pt"},"w":{"dtype":"F16","shape":[2,3],"data_offsets":[0,12]}}`)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.Write(header)

	h, err := ReadSafeTensorsHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "pt", h.Metadata["format"])
	assert.Equal(t, statedict.F16, h.Tensors["w"].DType)
	assert.Equal(t, [2]int64{0, 12}, h.Tensors["w"].DataOffsets)
}

func TestReadSafeTensorsHeader_Errors(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))
		_, err := ReadSafeTensorsHeader(&buf)
		assert.ErrorIs(t, err, ErrHeaderTooLarge)
	})

	t.Run("truncated size", func(t *testing.T) {
		_, err := ReadSafeTensorsHeader(bytes.NewReader([]byte{1, 2}))
		assert.Error(t, err)
	})

	t.Run("truncated header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(100)))
		buf.WriteString("{}")
		_, err := ReadSafeTensorsHeader(&buf)
		assert.Error(t, err)
	})

	t.Run("bad json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(3)))
		buf.WriteString("{x}")
		_, err := ReadSafeTensorsHeader(&buf)
		assert.ErrorContains(t, err, "parse header")
	})
}

func TestReadManifest(t *testing.T) {
	src := `
params_ema:
  body.0.weight: [64, 3, 3, 3]
  body.1.weight: [64]
  body.2.weight: {dtype: F16, shape: [48, 64, 3, 3]}
  step: null
model:
  initial.cnn.depthwise.weight: [3, 1, 9, 9]
empty: {}
`
	sd, err := ReadManifest(strings.NewReader(src))
	require.NoError(t, err)

	inner, ok := sd.Sub("params_ema")
	require.True(t, ok)
	assert.Len(t, inner, 4)

	s, ok := inner.ShapeOf("body.0.weight")
	require.True(t, ok)
	assert.Equal(t, statedict.Shape{64, 3, 3, 3}, s)

	info := inner["body.2.weight"].(statedict.TensorInfo)
	assert.Equal(t, statedict.F16, info.DType)
	assert.True(t, inner.Has("step"))
	assert.Nil(t, inner["step"])

	assert.True(t, sd.HasNested("model", "initial.cnn.depthwise.weight"))
	empty, ok := sd.Sub("empty")
	require.True(t, ok)
	assert.Empty(t, empty)
}

func TestReadManifest_JSON(t *testing.T) {
	src := `{"params": {"f_HR_conv1.0.weight": [3, 64, 3, 3], "model.0.weight": null}}`
	sd, err := ReadManifest(strings.NewReader(src))
	require.NoError(t, err)
	assert.True(t, sd.HasNested("params", "f_HR_conv1.0.weight"))
}

func TestReadManifest_Empty(t *testing.T) {
	sd, err := ReadManifest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sd)
}

func TestReadManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
	}{
		{"scalar leaf", "a: 3\n", "a"},
		{"string shape", "a: [x, y]\n", "a"},
		{"top-level list", "- 1\n- 2\n", ""},
		{"nested scalar", "outer:\n  inner: text\n", "outer/inner"},
		{"duplicate", "a: [1]\na: [2]\n", "a"},
		{"recursive alias", "a: &x\n  b: *x\n", "a/b"},
		{"nested recursive alias", "a: &x\n  b:\n    c: *x\n", "a/b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadManifest(strings.NewReader(tt.src))
			require.Error(t, err)

			var merr *ManifestError
			if errors.As(err, &merr) {
				assert.Equal(t, tt.path, merr.Path)
				assert.Positive(t, merr.Line)
			}
		})
	}
}

func TestReadManifest_Aliases(t *testing.T) {
	src := `
conv: &conv [64, 64, 3, 3]
block: &block
  conv1.weight: *conv
  conv2.weight: *conv
params:
  body.0: *block
  body.1: *block
`
	sd, err := ReadManifest(strings.NewReader(src))
	require.NoError(t, err)

	params, ok := sd.Sub("params")
	require.True(t, ok)
	assert.True(t, params.HasNested("body.1", "conv2.weight"))

	block, ok := params.Sub("body.0")
	require.True(t, ok)
	s, ok := block.ShapeOf("conv1.weight")
	require.True(t, ok)
	assert.Equal(t, statedict.Shape{64, 64, 3, 3}, s)
}

func TestReadManifest_AliasFanOutBounded(t *testing.T) {
	// Each level references the previous one ten times.
	var b strings.Builder
	b.WriteString("l0: &l0\n")
	for k := 0; k < 10; k++ {
		fmt.Fprintf(&b, "  k%d: [1]\n", k)
	}
	for level := 1; level <= 6; level++ {
		fmt.Fprintf(&b, "l%d: &l%d\n", level, level)
		for k := 0; k < 10; k++ {
			fmt.Fprintf(&b, "  k%d: *l%d\n", k, level-1)
		}
	}

	_, err := ReadManifest(strings.NewReader(b.String()))
	var merr *ManifestError
	require.ErrorAs(t, err, &merr)
	assert.Contains(t, merr.Details, "entries")
}

func TestOpen_Formats(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "swinir.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("layers.0.residual_group.blocks.0.norm1.weight: [60]\n"), 0o600))
	sd, err := Open(yamlPath)
	require.NoError(t, err)
	assert.True(t, sd.Has("layers.0.residual_group.blocks.0.norm1.weight"))

	_, err = Open(filepath.Join(dir, "model.pth"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(dir, "missing.safetensors"))
	assert.Error(t, err)
	_, err = Open(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatSafeTensors, DetectFormat("a/B.SafeTensors"))
	assert.Equal(t, FormatManifest, DetectFormat("x.yaml"))
	assert.Equal(t, FormatManifest, DetectFormat("x.json"))
	assert.Equal(t, FormatUnknown, DetectFormat("x.ckpt"))
	assert.Equal(t, "SafeTensors", FormatSafeTensors.String())
	assert.Equal(t, "Unknown", FormatUnknown.String())
}
