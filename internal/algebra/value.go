// Package algebra provides the scalar element domain every stage computes
// over. Stages express all arithmetic through the Value interface so the
// tracer can re-execute them with Signal elements, turning ordinary numeric
// computation into reachability propagation: a Hot element marks positions a
// perturbed input can influence, a Cold element marks positions it cannot.
package algebra

import "math"

// Value is a scalar element. Two implementations exist: Real for ordinary
// numeric execution and Signal for connectivity probing. The combination
// rules are fixed; stages must not inspect the concrete type.
type Value interface {
	Add(Value) Value
	Sub(Value) Value
	Mul(Value) Value
	Div(Value) Value
	Pow(Value) Value
	Mod(Value) Value

	Neg() Value
	Abs() Value
	Recip() Value
	Tanh() Value
	Sqrt() Value
	Exp() Value
	Log() Value

	// Unary applies an arbitrary elementwise scalar function. Real maps the
	// wrapped number through f; Signal passes through unchanged, because an
	// elementwise function can neither create nor sever a dependency.
	Unary(f func(float64) float64) Value

	// Gate multiplies by a boolean mask. A false gate is the only operation
	// that collapses a Signal back to Cold.
	Gate(on bool) Value

	Equal(Value) bool
	Less(Value) bool
	Greater(Value) bool
}

// Real wraps an ordinary floating point scalar.
type Real float64

// Lift converts an ordinary number into the element domain.
func Lift(x float64) Value { return Real(x) }

func (r Real) binary(v Value, f func(a, b float64) float64) Value {
	if o, ok := v.(Real); ok {
		return Real(f(float64(r), float64(o)))
	}
	// Arithmetic between an ordinary number and a propagation value leaves
	// the propagation value unchanged, whatever the number's magnitude.
	return v
}

func (r Real) Add(v Value) Value { return r.binary(v, func(a, b float64) float64 { return a + b }) }
func (r Real) Sub(v Value) Value { return r.binary(v, func(a, b float64) float64 { return a - b }) }
func (r Real) Mul(v Value) Value { return r.binary(v, func(a, b float64) float64 { return a * b }) }
func (r Real) Div(v Value) Value { return r.binary(v, func(a, b float64) float64 { return a / b }) }
func (r Real) Pow(v Value) Value { return r.binary(v, math.Pow) }
func (r Real) Mod(v Value) Value { return r.binary(v, math.Mod) }

func (r Real) Neg() Value   { return -r }
func (r Real) Abs() Value   { return Real(math.Abs(float64(r))) }
func (r Real) Recip() Value { return 1 / r }
func (r Real) Tanh() Value  { return Real(math.Tanh(float64(r))) }
func (r Real) Sqrt() Value  { return Real(math.Sqrt(float64(r))) }
func (r Real) Exp() Value   { return Real(math.Exp(float64(r))) }
func (r Real) Log() Value   { return Real(math.Log(float64(r))) }

func (r Real) Unary(f func(float64) float64) Value { return Real(f(float64(r))) }

func (r Real) Gate(on bool) Value {
	if !on {
		return Real(0)
	}
	return r
}

func (r Real) Equal(v Value) bool {
	o, ok := v.(Real)
	return ok && r == o
}

// Less orders any ordinary number below any propagation value.
func (r Real) Less(v Value) bool {
	if o, ok := v.(Real); ok {
		return r < o
	}
	return true
}

func (r Real) Greater(v Value) bool {
	o, ok := v.(Real)
	return ok && r > o
}

// Signal is the two-state propagation value. Cold marks an unperturbed
// position, Hot a position reachable from the probed input coordinate.
type Signal bool

const (
	Cold Signal = false
	Hot  Signal = true
)

// combine implements every binary rule: hot if either propagation operand is
// hot, unchanged when the other operand is an ordinary number.
func (s Signal) combine(v Value) Value {
	if o, ok := v.(Signal); ok {
		return s || o
	}
	return s
}

func (s Signal) Add(v Value) Value { return s.combine(v) }
func (s Signal) Sub(v Value) Value { return s.combine(v) }
func (s Signal) Mul(v Value) Value { return s.combine(v) }
func (s Signal) Div(v Value) Value { return s.combine(v) }
func (s Signal) Pow(v Value) Value { return s.combine(v) }
func (s Signal) Mod(v Value) Value { return s.combine(v) }

func (s Signal) Neg() Value   { return s }
func (s Signal) Abs() Value   { return s }
func (s Signal) Recip() Value { return s }
func (s Signal) Tanh() Value  { return s }
func (s Signal) Sqrt() Value  { return s }
func (s Signal) Exp() Value   { return s }
func (s Signal) Log() Value   { return s }

func (s Signal) Unary(func(float64) float64) Value { return s }

func (s Signal) Gate(on bool) Value {
	if !on {
		return Cold
	}
	return s
}

// Equal compares the two-element state against another Signal; comparison
// against an ordinary number is always false in both directions.
func (s Signal) Equal(v Value) bool {
	o, ok := v.(Signal)
	return ok && s == o
}

func (s Signal) Less(v Value) bool {
	if o, ok := v.(Signal); ok {
		return !bool(s) && bool(o)
	}
	return false
}

// Greater reports true against any ordinary number: a propagation value
// sorts above the whole numeric line so that generic comparison paths do not
// crash. Neither ordering carries connectivity semantics.
func (s Signal) Greater(v Value) bool {
	if o, ok := v.(Signal); ok {
		return bool(s) && !bool(o)
	}
	return true
}

func (s Signal) String() string {
	if s == Hot {
		return "hot"
	}
	return "cold"
}

// Zero and One are the propagation domain's identity constants. Both are
// Cold: under the OR combine rule Cold is the neutral element, so
// x.Add(Zero()) and x.Mul(One()) leave x unchanged.
func Zero() Signal { return Cold }

func One() Signal { return Cold }

// IsHot reports whether v is the Hot propagation state.
func IsHot(v Value) bool {
	s, ok := v.(Signal)
	return ok && bool(s)
}
