package statedict

import (
	"fmt"
	"strings"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String formats the shape as [d0, d1, ...].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = fmt.Sprintf("%d", dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DType names the element type of a tensor as written by checkpoint producers.
type DType string

// Known dtypes. The names follow the SafeTensors header convention.
const (
	F16     DType = "F16"
	BF16    DType = "BF16"
	F32     DType = "F32"
	F64     DType = "F64"
	I32     DType = "I32"
	I64     DType = "I64"
	U8      DType = "U8"
	Bool    DType = "BOOL"
	Unknown DType = ""
)

// Shaped is implemented by values that can report a tensor shape.
type Shaped interface {
	TensorShape() Shape
}

// TensorInfo is a shape-only tensor descriptor. It is what checkpoint
// readers produce when only the header of a file has been read.
type TensorInfo struct {
	DType DType
	Shape Shape
}

// NewTensorInfo creates a descriptor with the given dtype and dimensions.
func NewTensorInfo(dtype DType, dims ...int) TensorInfo {
	return TensorInfo{DType: dtype, Shape: Shape(dims).Clone()}
}

// TensorShape implements Shaped.
func (t TensorInfo) TensorShape() Shape {
	return t.Shape
}

// String returns a short description such as "F32[64, 3, 3, 3]".
func (t TensorInfo) String() string {
	if t.DType == Unknown {
		return t.Shape.String()
	}
	return string(t.DType) + t.Shape.String()
}
