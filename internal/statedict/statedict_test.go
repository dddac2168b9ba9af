package statedict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	inner := StateDict{"body.0.weight": nil, "body.1.weight": nil}

	tests := []struct {
		name    string
		in      StateDict
		want    StateDict
		wrapper string
	}{
		{"params_ema", StateDict{"params_ema": inner}, inner, "params_ema"},
		{"params-ema", StateDict{"params-ema": inner}, inner, "params-ema"},
		{"params", StateDict{"params": inner}, inner, "params"},
		{"plain map value", StateDict{"params": map[string]any{"x": 1}}, StateDict{"x": 1}, "params"},
		{"no wrapper", inner, inner, ""},
		{"empty", StateDict{}, StateDict{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wrapper := Unwrap(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wrapper, wrapper)
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Priority(t *testing.T) {
	ema := StateDict{"ema": true}
	plain := StateDict{"plain": true}

	sd := StateDict{"params": plain, "params_ema": ema}
	assert.Equal(t, ema, Normalize(sd), "params_ema wins over params")

	sd = StateDict{"params": plain, "params-ema": ema}
	assert.Equal(t, ema, Normalize(sd), "params-ema wins over params")
}

func TestNormalize_NonMappingWrapper(t *testing.T) {
	// The first wrapper present decides, even when it is not a mapping.
	sd := StateDict{
		"params_ema": NewTensorInfo(F32, 3),
		"params":     StateDict{"body.0.weight": nil},
	}
	got, wrapper := Unwrap(sd)
	assert.Equal(t, sd, got)
	assert.Empty(t, wrapper)
}

func TestNormalize_SingleLevel(t *testing.T) {
	nested := StateDict{"params": StateDict{"params": StateDict{"x": nil}}}
	got := Normalize(nested)
	require.True(t, got.Has("params"))
	assert.False(t, got.Has("x"))
}

func TestNormalize_DoesNotMutate(t *testing.T) {
	inner := StateDict{"a": nil}
	sd := StateDict{"params": inner, "other": 1}
	_ = Normalize(sd)
	assert.Len(t, sd, 2)
	assert.Len(t, inner, 1)
}

func TestStateDict_HasNested(t *testing.T) {
	sd := StateDict{
		"model":  StateDict{"initial.cnn.depthwise.weight": nil},
		"plain":  map[string]any{"k": nil},
		"tensor": NewTensorInfo(F32, 1),
	}

	assert.True(t, sd.HasNested("model", "initial.cnn.depthwise.weight"))
	assert.True(t, sd.HasNested("plain", "k"))
	assert.False(t, sd.HasNested("model", "missing"))
	assert.False(t, sd.HasNested("tensor", "k"))
	assert.False(t, sd.HasNested("absent", "k"))
}

func TestStateDict_ShapeOf(t *testing.T) {
	sd := StateDict{
		"w":    NewTensorInfo(F16, 64, 3, 3, 3),
		"nil":  nil,
		"opaq": "bytes",
	}

	s, ok := sd.ShapeOf("w")
	require.True(t, ok)
	assert.Equal(t, Shape{64, 3, 3, 3}, s)

	_, ok = sd.ShapeOf("nil")
	assert.False(t, ok)
	_, ok = sd.ShapeOf("opaq")
	assert.False(t, ok)
	_, ok = sd.ShapeOf("missing")
	assert.False(t, ok)
}

func TestStateDict_Indices(t *testing.T) {
	sd := StateDict{
		"body.0.weight":  nil,
		"body.2.weight":  nil,
		"body.10.weight": nil,
		"body.1.bias":    nil,
		"body.x.weight":  nil,
		"body.01.weight": nil,
		"head.3.weight":  nil,
	}

	assert.Equal(t, []int{0, 2, 10}, sd.Indices("body.", ".weight"))
	assert.Equal(t, 10, sd.MaxIndex("body.", ".weight"))
	assert.Equal(t, -1, sd.MaxIndex("tail.", ".weight"))
}

func TestShape(t *testing.T) {
	s := Shape{2, 3}
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, "[2, 3]", s.String())
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])
}

func TestTensorInfo_String(t *testing.T) {
	assert.Equal(t, "F32[64, 3]", NewTensorInfo(F32, 64, 3).String())
	assert.Equal(t, "[1]", TensorInfo{Shape: Shape{1}}.String())
}
