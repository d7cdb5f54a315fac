package trace

import (
	"context"
	"fmt"

	"synaptrace/internal/layer"
	"synaptrace/internal/tensor"
)

// Input selects how the chain's input shape is determined. Sample wins over
// Shape; when both are empty the first stage must declare a fixed input
// width.
type Input struct {
	Sample *tensor.Tensor
	Shape  tensor.Shape
}

func resolveSample(chain layer.Chain, input Input) (*tensor.Tensor, error) {
	if input.Sample != nil {
		return input.Sample, nil
	}
	if input.Shape != nil {
		sample, err := tensor.Zeros(input.Shape)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		return sample, nil
	}
	if len(chain) == 0 {
		return nil, &ConfigurationError{Reason: "empty chain and no sample or shape supplied"}
	}
	fixed, ok := chain[0].(layer.FixedInput)
	if !ok {
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("first stage %q declares no fixed input width and no sample or shape was supplied", chain[0].Name()),
		}
	}
	sample, err := tensor.Zeros(tensor.Shape{fixed.FixedInputWidth()})
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}
	return sample, nil
}

// ProbeShapes determines the array shape at every stage boundary: the input
// shape first, then each stage's output shape in chain order. It executes
// the chain once with ordinary numbers; only shapes are observed.
func ProbeShapes(ctx context.Context, chain layer.Chain, input Input) ([]tensor.Shape, error) {
	sample, err := resolveSample(chain, input)
	if err != nil {
		return nil, err
	}

	shapes := make([]tensor.Shape, 0, len(chain)+1)
	shapes = append(shapes, sample.Shape().Clone())

	current := sample
	for k, stage := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Apply(current)
		if err != nil {
			return nil, &ExecutionError{Stage: k, Err: err}
		}
		shapes = append(shapes, out.Shape().Clone())
		current = out
	}
	return shapes, nil
}
