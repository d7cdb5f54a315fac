// Package tensor provides the dense multi-dimensional arrays exchanged at
// stage boundaries, plus the coordinate enumeration and one-hot probe
// buffers the connectivity tracer drives stages with.
package tensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"synaptrace/internal/algebra"
)

var (
	ErrInvalidShape    = errors.New("invalid shape")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrCoordinateRange = errors.New("coordinate out of range")
)

// Shape is the dimensional extent of an array at a stage boundary. All
// dimensions are at least 1.
type Shape []int

func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidShape)
	}
	for i, d := range s {
		if d < 1 {
			return fmt.Errorf("%w: dimension %d is %d", ErrInvalidShape, i+1, d)
		}
	}
	return nil
}

// Len returns the element count, the product of all dimensions.
func (s Shape) Len() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}

// Coordinates enumerates every coordinate of the shape exactly once, in
// row-major order with the last dimension varying fastest. The order is
// stable across calls.
func (s Shape) Coordinates() []Coordinate {
	if s.Validate() != nil {
		return nil
	}
	out := make([]Coordinate, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		out = append(out, s.Coordinate(i))
	}
	return out
}

// Index converts a 1-based coordinate to a flat row-major index.
func (s Shape) Index(c Coordinate) (int, error) {
	if len(c) != len(s) {
		return 0, fmt.Errorf("%w: coordinate %s has rank %d, shape %s has rank %d",
			ErrCoordinateRange, c.Key(), len(c), s, len(s))
	}
	idx := 0
	for i, d := range s {
		if c[i] < 1 || c[i] > d {
			return 0, fmt.Errorf("%w: %s not within %s", ErrCoordinateRange, c.Key(), s)
		}
		idx = idx*d + (c[i] - 1)
	}
	return idx, nil
}

// Coordinate converts a flat row-major index to a 1-based coordinate.
func (s Shape) Coordinate(idx int) Coordinate {
	c := make(Coordinate, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		c[i] = idx%s[i] + 1
		idx /= s[i]
	}
	return c
}

// Coordinate identifies one scalar position within a Shape. Indices are
// 1-based, one per dimension.
type Coordinate []int

func (c Coordinate) Clone() Coordinate {
	out := make(Coordinate, len(c))
	copy(out, c)
	return out
}

func (c Coordinate) Equal(o Coordinate) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Key returns the canonical string form used for map keys, e.g. "2,3".
func (c Coordinate) Key() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Compare orders coordinates lexicographically, shorter ranks first.
func Compare(a, b Coordinate) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return len(a) - len(b)
}

// Tensor is a dense array of element values in row-major layout.
type Tensor struct {
	shape Shape
	data  []algebra.Value
}

// Filled returns a tensor with every element set to v.
func Filled(shape Shape, v algebra.Value) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	data := make([]algebra.Value, shape.Len())
	for i := range data {
		data[i] = v
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// Zeros returns a tensor of ordinary zeros, used for shape probing where
// only dimensions matter.
func Zeros(shape Shape) (*Tensor, error) {
	return Filled(shape, algebra.Real(0))
}

// FromFloats builds a tensor of ordinary numbers from a flat row-major
// slice.
func FromFloats(shape Shape, values []float64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(values) != shape.Len() {
		return nil, fmt.Errorf("%w: %d values for shape %s", ErrShapeMismatch, len(values), shape)
	}
	data := make([]algebra.Value, len(values))
	for i, v := range values {
		data[i] = algebra.Real(v)
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// OneHot returns an all-Cold probe buffer with Hot at the given coordinate.
func OneHot(shape Shape, at Coordinate) (*Tensor, error) {
	t, err := Filled(shape, algebra.Cold)
	if err != nil {
		return nil, err
	}
	idx, err := shape.Index(at)
	if err != nil {
		return nil, err
	}
	t.data[idx] = algebra.Hot
	return t, nil
}

func (t *Tensor) Shape() Shape { return t.shape }

func (t *Tensor) Len() int { return len(t.data) }

// At returns the element at a flat row-major index.
func (t *Tensor) At(idx int) algebra.Value { return t.data[idx] }

// SetAt stores the element at a flat row-major index.
func (t *Tensor) SetAt(idx int, v algebra.Value) { t.data[idx] = v }

func (t *Tensor) Get(c Coordinate) (algebra.Value, error) {
	idx, err := t.shape.Index(c)
	if err != nil {
		return nil, err
	}
	return t.data[idx], nil
}

func (t *Tensor) Set(c Coordinate, v algebra.Value) error {
	idx, err := t.shape.Index(c)
	if err != nil {
		return err
	}
	t.data[idx] = v
	return nil
}

func (t *Tensor) Clone() *Tensor {
	data := make([]algebra.Value, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// WithShape reinterprets the same elements under a new shape of equal
// element count.
func (t *Tensor) WithShape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.Len() != len(t.data) {
		return nil, fmt.Errorf("%w: cannot view %s as %s", ErrShapeMismatch, t.shape, shape)
	}
	data := make([]algebra.Value, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// Fill resets every element to v.
func (t *Tensor) Fill(v algebra.Value) {
	for i := range t.data {
		t.data[i] = v
	}
}

// HotCoordinates returns, in enumeration order, every coordinate whose
// element is the Hot propagation state.
func (t *Tensor) HotCoordinates() []Coordinate {
	var out []Coordinate
	for i, v := range t.data {
		if algebra.IsHot(v) {
			out = append(out, t.shape.Coordinate(i))
		}
	}
	return out
}

// Floats extracts the ordinary numeric content; it fails on propagation
// elements.
func (t *Tensor) Floats() ([]float64, error) {
	out := make([]float64, len(t.data))
	for i, v := range t.data {
		r, ok := v.(algebra.Real)
		if !ok {
			return nil, fmt.Errorf("element %d is not an ordinary number", i)
		}
		out[i] = float64(r)
	}
	return out, nil
}
