package layer

import (
	"errors"
	"fmt"

	"synaptrace/internal/algebra"
	"synaptrace/internal/tensor"
)

var ErrBadStageConfig = errors.New("bad stage configuration")

// Dense is a fully connected stage: every output element is a weighted sum
// over every input element plus a bias term. Inputs of any rank are treated
// as flat.
type Dense struct {
	in, out int
	weights *tensor.Tensor // {out, in}
	bias    *tensor.Tensor // {out}
}

// NewDense builds a dense stage. Nil weights or bias synthesize zero
// parameters; connectivity does not depend on their values.
func NewDense(in, out int, weights [][]float64, bias []float64) (*Dense, error) {
	if in < 1 || out < 1 {
		return nil, fmt.Errorf("%w: dense needs in>=1 and out>=1, got %dx%d", ErrBadStageConfig, in, out)
	}
	flat := make([]float64, in*out)
	if weights != nil {
		if len(weights) != out {
			return nil, fmt.Errorf("%w: dense weights have %d rows, want %d", ErrBadStageConfig, len(weights), out)
		}
		for o, row := range weights {
			if len(row) != in {
				return nil, fmt.Errorf("%w: dense weight row %d has %d columns, want %d", ErrBadStageConfig, o+1, len(row), in)
			}
			copy(flat[o*in:], row)
		}
	}
	if bias == nil {
		bias = make([]float64, out)
	}
	if len(bias) != out {
		return nil, fmt.Errorf("%w: dense bias has %d elements, want %d", ErrBadStageConfig, len(bias), out)
	}
	w, err := tensor.FromFloats(tensor.Shape{out, in}, flat)
	if err != nil {
		return nil, err
	}
	b, err := tensor.FromFloats(tensor.Shape{out}, bias)
	if err != nil {
		return nil, err
	}
	return &Dense{in: in, out: out, weights: w, bias: b}, nil
}

func (d *Dense) Name() string { return "dense" }

func (d *Dense) FixedInputWidth() int { return d.in }

func (d *Dense) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	if in.Len() != d.in {
		return nil, fmt.Errorf("dense: input has %d elements, want %d", in.Len(), d.in)
	}
	out, err := tensor.Zeros(tensor.Shape{d.out})
	if err != nil {
		return nil, err
	}
	for o := 0; o < d.out; o++ {
		acc := d.bias.At(o)
		for i := 0; i < d.in; i++ {
			acc = acc.Add(d.weights.At(o*d.in + i).Mul(in.At(i)))
		}
		out.SetAt(o, acc)
	}
	return out, nil
}

func (d *Dense) MapParameters(fn func(*tensor.Tensor) *tensor.Tensor) Stage {
	return &Dense{in: d.in, out: d.out, weights: fn(d.weights), bias: fn(d.bias)}
}

// Elementwise applies a registered activation to each element in place,
// preserving the shape.
type Elementwise struct {
	activation string
}

func NewElementwise(activation string) (*Elementwise, error) {
	if _, err := GetActivation(activation); err != nil {
		return nil, err
	}
	return &Elementwise{activation: activation}, nil
}

func (e *Elementwise) Name() string { return "elementwise:" + e.activation }

func (e *Elementwise) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	fn, err := GetActivation(e.activation)
	if err != nil {
		return nil, err
	}
	out := in.Clone()
	for i := 0; i < out.Len(); i++ {
		out.SetAt(i, fn(out.At(i)))
	}
	return out, nil
}

// Bias adds a per-element offset parameter, preserving the shape.
type Bias struct {
	offsets *tensor.Tensor
}

func NewBias(offsets []float64) (*Bias, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: bias needs at least one offset", ErrBadStageConfig)
	}
	t, err := tensor.FromFloats(tensor.Shape{len(offsets)}, offsets)
	if err != nil {
		return nil, err
	}
	return &Bias{offsets: t}, nil
}

func (b *Bias) Name() string { return "bias" }

func (b *Bias) FixedInputWidth() int { return b.offsets.Len() }

func (b *Bias) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	if in.Len() != b.offsets.Len() {
		return nil, fmt.Errorf("bias: input has %d elements, want %d", in.Len(), b.offsets.Len())
	}
	out := in.Clone()
	for i := 0; i < out.Len(); i++ {
		out.SetAt(i, out.At(i).Add(b.offsets.At(i)))
	}
	return out, nil
}

func (b *Bias) MapParameters(fn func(*tensor.Tensor) *tensor.Tensor) Stage {
	return &Bias{offsets: fn(b.offsets)}
}

// Select copies a chosen subset of input elements to the output. Taps are
// 1-based flat indices into the input.
type Select struct {
	taps []int
}

func NewSelect(taps []int) (*Select, error) {
	if len(taps) == 0 {
		return nil, fmt.Errorf("%w: select needs at least one tap", ErrBadStageConfig)
	}
	for i, tap := range taps {
		if tap < 1 {
			return nil, fmt.Errorf("%w: select tap %d is %d, taps are 1-based", ErrBadStageConfig, i+1, tap)
		}
	}
	out := make([]int, len(taps))
	copy(out, taps)
	return &Select{taps: out}, nil
}

func (s *Select) Name() string { return "select" }

func (s *Select) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := tensor.Zeros(tensor.Shape{len(s.taps)})
	if err != nil {
		return nil, err
	}
	for j, tap := range s.taps {
		if tap > in.Len() {
			return nil, fmt.Errorf("select: tap %d exceeds input of %d elements", tap, in.Len())
		}
		out.SetAt(j, in.At(tap-1))
	}
	return out, nil
}

// Mask gates each element by a boolean: false severs the dependency, true
// passes it through. The shape is preserved.
type Mask struct {
	keep []bool
}

func NewMask(keep []bool) (*Mask, error) {
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: mask needs at least one element", ErrBadStageConfig)
	}
	out := make([]bool, len(keep))
	copy(out, keep)
	return &Mask{keep: out}, nil
}

func (m *Mask) Name() string { return "mask" }

func (m *Mask) FixedInputWidth() int { return len(m.keep) }

func (m *Mask) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	if in.Len() != len(m.keep) {
		return nil, fmt.Errorf("mask: input has %d elements, want %d", in.Len(), len(m.keep))
	}
	out := in.Clone()
	for i := 0; i < out.Len(); i++ {
		out.SetAt(i, out.At(i).Gate(m.keep[i]))
	}
	return out, nil
}

// Reshape reinterprets the input under a new shape of equal element count;
// element order is preserved.
type Reshape struct {
	to tensor.Shape
}

func NewReshape(to []int) (*Reshape, error) {
	shape := tensor.Shape(to).Clone()
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Reshape{to: shape}, nil
}

func (r *Reshape) Name() string { return "reshape" }

func (r *Reshape) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	return in.WithShape(r.to)
}

// Fanout copies the whole input the configured number of times, so each
// input element reaches one output element per copy.
type Fanout struct {
	copies int
}

func NewFanout(copies int) (*Fanout, error) {
	if copies < 1 {
		return nil, fmt.Errorf("%w: fanout needs copies>=1, got %d", ErrBadStageConfig, copies)
	}
	return &Fanout{copies: copies}, nil
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	n := in.Len()
	out, err := tensor.Zeros(tensor.Shape{f.copies * n})
	if err != nil {
		return nil, err
	}
	for c := 0; c < f.copies; c++ {
		for i := 0; i < n; i++ {
			out.SetAt(c*n+i, in.At(i))
		}
	}
	return out, nil
}

// Conv1D slides a kernel over a rank-1 input with the configured stride:
// each output element depends on a local receptive field of kernel-size
// consecutive inputs.
type Conv1D struct {
	kernel *tensor.Tensor // {k}
	stride int
}

func NewConv1D(kernel []float64, stride int) (*Conv1D, error) {
	if len(kernel) == 0 {
		return nil, fmt.Errorf("%w: conv1d needs a non-empty kernel", ErrBadStageConfig)
	}
	if stride < 1 {
		return nil, fmt.Errorf("%w: conv1d needs stride>=1, got %d", ErrBadStageConfig, stride)
	}
	k, err := tensor.FromFloats(tensor.Shape{len(kernel)}, kernel)
	if err != nil {
		return nil, err
	}
	return &Conv1D{kernel: k, stride: stride}, nil
}

func (c *Conv1D) Name() string { return "conv1d" }

func (c *Conv1D) Apply(in *tensor.Tensor) (*tensor.Tensor, error) {
	if len(in.Shape()) != 1 {
		return nil, fmt.Errorf("conv1d: input must be rank 1, got shape %s", in.Shape())
	}
	n, k := in.Len(), c.kernel.Len()
	if n < k {
		return nil, fmt.Errorf("conv1d: input of %d elements is narrower than kernel of %d", n, k)
	}
	width := (n-k)/c.stride + 1
	out, err := tensor.Zeros(tensor.Shape{width})
	if err != nil {
		return nil, err
	}
	for o := 0; o < width; o++ {
		acc := algebra.Value(algebra.Real(0))
		for j := 0; j < k; j++ {
			acc = acc.Add(c.kernel.At(j).Mul(in.At(o*c.stride + j)))
		}
		out.SetAt(o, acc)
	}
	return out, nil
}

func (c *Conv1D) MapParameters(fn func(*tensor.Tensor) *tensor.Tensor) Stage {
	return &Conv1D{kernel: fn(c.kernel), stride: c.stride}
}
