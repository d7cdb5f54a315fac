// Package layer defines the stage abstraction the connectivity tracer
// operates on, plus the built-in stage implementations. Stages are written
// once over algebra.Value: executed with Real elements they compute ordinary
// numbers, executed with Signal elements the same code propagates
// reachability. Stage code must never branch on an element's numeric
// content.
package layer

import "synaptrace/internal/tensor"

// Stage is one opaque unit of a chain, mapping an array of one shape to an
// array of another shape.
type Stage interface {
	Name() string
	Apply(in *tensor.Tensor) (*tensor.Tensor, error)
}

// FixedInput is an optional stage capability declaring an input width known
// independent of sample data.
type FixedInput interface {
	FixedInputWidth() int
}

// Parameterized is an optional stage capability exposing internal numeric
// parameter tensors for structural rewriting. MapParameters returns a copy
// of the stage with fn applied to every parameter tensor; non-parameter
// configuration is preserved.
type Parameterized interface {
	MapParameters(fn func(*tensor.Tensor) *tensor.Tensor) Stage
}

// Chain is an ordered sequence of stages, composed left to right.
type Chain []Stage
