package layer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"synaptrace/internal/algebra"
	"synaptrace/internal/tensor"
)

func floats(t *testing.T, shape tensor.Shape, values []float64) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.FromFloats(shape, values)
	require.NoError(t, err)
	return tt
}

func TestDenseApplyNumeric(t *testing.T) {
	dense, err := NewDense(3, 2, [][]float64{{1, 2, 3}, {4, 5, 6}}, []float64{1, -1})
	require.NoError(t, err)
	require.Equal(t, 3, dense.FixedInputWidth())

	out, err := dense.Apply(floats(t, tensor.Shape{3}, []float64{1, 1, 1}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{7, 14}, got)
}

func TestDenseApplySignalReachesEveryOutput(t *testing.T) {
	// Zero weights: structurally every output still combines every input.
	dense, err := NewDense(3, 2, nil, nil)
	require.NoError(t, err)

	probe, err := tensor.OneHot(tensor.Shape{3}, tensor.Coordinate{2})
	require.NoError(t, err)
	out, err := dense.Apply(probe)
	require.NoError(t, err)
	require.Equal(t, []tensor.Coordinate{{1}, {2}}, out.HotCoordinates())
}

func TestDenseValidation(t *testing.T) {
	_, err := NewDense(0, 2, nil, nil)
	require.ErrorIs(t, err, ErrBadStageConfig)
	_, err = NewDense(3, 2, [][]float64{{1, 2, 3}}, nil)
	require.ErrorIs(t, err, ErrBadStageConfig)
	_, err = NewDense(3, 2, nil, []float64{1})
	require.ErrorIs(t, err, ErrBadStageConfig)

	dense, err := NewDense(3, 2, nil, nil)
	require.NoError(t, err)
	_, err = dense.Apply(floats(t, tensor.Shape{2}, []float64{1, 2}))
	require.Error(t, err)
}

func TestDenseMapParameters(t *testing.T) {
	dense, err := NewDense(2, 2, [][]float64{{1, 2}, {3, 4}}, []float64{5, 6})
	require.NoError(t, err)

	neutral := dense.MapParameters(func(p *tensor.Tensor) *tensor.Tensor {
		cold, err := tensor.Filled(p.Shape(), algebra.Cold)
		require.NoError(t, err)
		return cold
	})
	require.Equal(t, "dense", neutral.Name())
	require.Equal(t, 2, neutral.(FixedInput).FixedInputWidth())

	// The original keeps its parameters.
	out, err := dense.Apply(floats(t, tensor.Shape{2}, []float64{1, 0}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{6, 9}, got)

	// The neutralized copy still wires every input to every output.
	probe, err := tensor.OneHot(tensor.Shape{2}, tensor.Coordinate{1})
	require.NoError(t, err)
	hot, err := neutral.Apply(probe)
	require.NoError(t, err)
	require.Equal(t, []tensor.Coordinate{{1}, {2}}, hot.HotCoordinates())
}

func TestElementwiseApply(t *testing.T) {
	stage, err := NewElementwise("relu")
	require.NoError(t, err)
	require.Equal(t, "elementwise:relu", stage.Name())

	out, err := stage.Apply(floats(t, tensor.Shape{3}, []float64{-2, 0, 2}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 2}, got)

	_, err = NewElementwise("missing")
	require.ErrorIs(t, err, ErrActivationNotFound)
}

func TestBiasApply(t *testing.T) {
	stage, err := NewBias([]float64{10, 20})
	require.NoError(t, err)
	require.Equal(t, 2, stage.FixedInputWidth())

	out, err := stage.Apply(floats(t, tensor.Shape{2}, []float64{1, 2}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{11, 22}, got)

	_, err = NewBias(nil)
	require.ErrorIs(t, err, ErrBadStageConfig)
}

func TestSelectApply(t *testing.T) {
	stage, err := NewSelect([]int{2})
	require.NoError(t, err)

	out, err := stage.Apply(floats(t, tensor.Shape{3}, []float64{7, 8, 9}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{8}, got)

	_, err = stage.Apply(floats(t, tensor.Shape{1}, []float64{7}))
	require.Error(t, err)

	_, err = NewSelect([]int{0})
	require.ErrorIs(t, err, ErrBadStageConfig)
	_, err = NewSelect(nil)
	require.ErrorIs(t, err, ErrBadStageConfig)
}

func TestMaskApply(t *testing.T) {
	stage, err := NewMask([]bool{true, false, true})
	require.NoError(t, err)

	out, err := stage.Apply(floats(t, tensor.Shape{3}, []float64{1, 2, 3}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0, 3}, got)

	// A false gate is the only rule that severs a dependency.
	probe, err := tensor.OneHot(tensor.Shape{3}, tensor.Coordinate{2})
	require.NoError(t, err)
	hot, err := stage.Apply(probe)
	require.NoError(t, err)
	require.Empty(t, hot.HotCoordinates())
}

func TestReshapeApply(t *testing.T) {
	stage, err := NewReshape([]int{2, 3})
	require.NoError(t, err)

	out, err := stage.Apply(floats(t, tensor.Shape{6}, []float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 3}, out.Shape())

	_, err = stage.Apply(floats(t, tensor.Shape{5}, []float64{1, 2, 3, 4, 5}))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestFanoutApply(t *testing.T) {
	stage, err := NewFanout(3)
	require.NoError(t, err)

	out, err := stage.Apply(floats(t, tensor.Shape{2}, []float64{1, 2}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 1, 2, 1, 2}, got)

	_, err = NewFanout(0)
	require.ErrorIs(t, err, ErrBadStageConfig)
}

func TestConv1DApply(t *testing.T) {
	stage, err := NewConv1D([]float64{1, 1, 1}, 1)
	require.NoError(t, err)

	out, err := stage.Apply(floats(t, tensor.Shape{5}, []float64{1, 2, 3, 4, 5}))
	require.NoError(t, err)
	got, err := out.Floats()
	require.NoError(t, err)
	require.Equal(t, []float64{6, 9, 12}, got)

	strided, err := NewConv1D([]float64{1, 1, 1}, 2)
	require.NoError(t, err)
	out, err = strided.Apply(floats(t, tensor.Shape{5}, []float64{1, 2, 3, 4, 5}))
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
}

func TestConv1DValidation(t *testing.T) {
	_, err := NewConv1D(nil, 1)
	require.ErrorIs(t, err, ErrBadStageConfig)
	_, err = NewConv1D([]float64{1}, 0)
	require.ErrorIs(t, err, ErrBadStageConfig)

	stage, err := NewConv1D([]float64{1, 1, 1}, 1)
	require.NoError(t, err)
	_, err = stage.Apply(floats(t, tensor.Shape{2}, []float64{1, 2}))
	require.Error(t, err)
	_, err = stage.Apply(floats(t, tensor.Shape{2, 2}, []float64{1, 2, 3, 4}))
	require.Error(t, err)
}

func TestConv1DLocality(t *testing.T) {
	stage, err := NewConv1D([]float64{0, 0, 0}, 1)
	require.NoError(t, err)

	// Input 1 participates only in the first window of a 5-wide input.
	probe, err := tensor.OneHot(tensor.Shape{5}, tensor.Coordinate{1})
	require.NoError(t, err)
	out, err := stage.Apply(probe)
	require.NoError(t, err)
	require.Equal(t, []tensor.Coordinate{{1}}, out.HotCoordinates())

	// Input 3 participates in all three windows.
	probe, err = tensor.OneHot(tensor.Shape{5}, tensor.Coordinate{3})
	require.NoError(t, err)
	out, err = stage.Apply(probe)
	require.NoError(t, err)
	require.Equal(t, []tensor.Coordinate{{1}, {2}, {3}}, out.HotCoordinates())
}
