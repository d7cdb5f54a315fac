package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"synaptrace/internal/layer"
	"synaptrace/internal/tensor"
)

func TestProbeShapesFromSample(t *testing.T) {
	sample, err := tensor.FromFloats(tensor.Shape{3}, []float64{0.5, -1, 2})
	require.NoError(t, err)
	chain := layer.Chain{
		mustDense(t, 3, 2, [][]float64{{1, 1, 1}, {2, 2, 2}}, nil),
		mustElementwise(t, "tanh"),
	}

	shapes, err := ProbeShapes(context.Background(), chain, Input{Sample: sample})
	require.NoError(t, err)
	require.Equal(t, []tensor.Shape{{3}, {2}, {2}}, shapes)
}

func TestProbeShapesFromShape(t *testing.T) {
	chain := layer.Chain{mustSelect(t, []int{1, 1, 2, 2})}

	shapes, err := ProbeShapes(context.Background(), chain, Input{Shape: tensor.Shape{2}})
	require.NoError(t, err)
	require.Equal(t, []tensor.Shape{{2}, {4}}, shapes)
}

func TestProbeShapesFromFixedWidth(t *testing.T) {
	chain := layer.Chain{
		mustDense(t, 4, 2, nil, nil),
		mustElementwise(t, "relu"),
	}

	shapes, err := ProbeShapes(context.Background(), chain, Input{})
	require.NoError(t, err)
	require.Equal(t, []tensor.Shape{{4}, {2}, {2}}, shapes)
}

func TestProbeShapesTracksReshape(t *testing.T) {
	reshape, err := layer.NewReshape([]int{2, 3})
	require.NoError(t, err)
	chain := layer.Chain{
		mustDense(t, 4, 6, nil, nil),
		reshape,
	}

	shapes, err := ProbeShapes(context.Background(), chain, Input{})
	require.NoError(t, err)
	require.Equal(t, []tensor.Shape{{4}, {6}, {2, 3}}, shapes)
}

func TestProbeShapesMissingConfiguration(t *testing.T) {
	chain := layer.Chain{mustElementwise(t, "identity")}

	_, err := ProbeShapes(context.Background(), chain, Input{})
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestProbeShapesEmptyChain(t *testing.T) {
	shapes, err := ProbeShapes(context.Background(), nil, Input{Shape: tensor.Shape{5}})
	require.NoError(t, err)
	require.Equal(t, []tensor.Shape{{5}}, shapes)

	_, err = ProbeShapes(context.Background(), nil, Input{})
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestProbeShapesInvalidShape(t *testing.T) {
	_, err := ProbeShapes(context.Background(), nil, Input{Shape: tensor.Shape{0}})
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestProbeShapesExecutionError(t *testing.T) {
	chain := layer.Chain{
		mustDense(t, 3, 2, nil, nil),
		mustMask(t, []bool{true, true, true}), // wants 3 elements, gets 2
	}

	_, err := ProbeShapes(context.Background(), chain, Input{})
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, 1, execErr.Stage)
}
