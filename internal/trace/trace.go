// Package trace implements shape probing and connectivity tracing over a
// chain of stages. Tracing drives a neutralized copy of each stage with
// one-hot probe buffers and harvests which output coordinates come back Hot,
// yielding the exact structural dependency graph between consecutive stage
// boundaries without inspecting any stage's parameters.
package trace

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"synaptrace/internal/algebra"
	"synaptrace/internal/layer"
	"synaptrace/internal/tensor"
)

// Options tune a trace. Workers <= 1 probes each stage sequentially, reusing
// one probe buffer; higher values probe coordinates concurrently, each probe
// on a fresh buffer.
type Options struct {
	Workers int
}

// Trace builds the connectivity map of every stage of the chain, in chain
// order. Any stage failure aborts the trace with no partial result.
func Trace(ctx context.Context, chain layer.Chain, input Input, opts Options) ([]StageConnectivity, error) {
	shapes, err := ProbeShapes(ctx, chain, input)
	if err != nil {
		return nil, err
	}
	return TraceWithShapes(ctx, chain, shapes, opts)
}

// TraceWithShapes traces a chain whose boundary shapes were already probed;
// shapes must be the ProbeShapes result for the same chain.
func TraceWithShapes(ctx context.Context, chain layer.Chain, shapes []tensor.Shape, opts Options) ([]StageConnectivity, error) {
	if len(shapes) != len(chain)+1 {
		return nil, fmt.Errorf("trace: %d boundary shapes for a chain of %d stages", len(shapes), len(chain))
	}

	out := make([]StageConnectivity, 0, len(chain))
	for k, stage := range chain {
		probed := Neutralize(stage)
		sc, err := traceStage(ctx, k, probed, stage.Name(), shapes[k], shapes[k+1], opts.Workers)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Neutralize returns a copy of the stage with every numeric parameter tensor
// replaced by an all-Cold tensor of identical shape. Parameter identity and
// shape survive, magnitude does not, so a probe's result depends only on
// which positions structurally participate in which combinations. Stages
// without parameters are returned unmodified.
func Neutralize(stage layer.Stage) layer.Stage {
	p, ok := stage.(layer.Parameterized)
	if !ok {
		return stage
	}
	return p.MapParameters(func(t *tensor.Tensor) *tensor.Tensor {
		cold, err := tensor.Filled(t.Shape(), algebra.Cold)
		if err != nil {
			// parameter tensors always carry a valid shape
			panic(err)
		}
		return cold
	})
}

func traceStage(ctx context.Context, k int, stage layer.Stage, name string, in, out tensor.Shape, workers int) (StageConnectivity, error) {
	coords := in.Coordinates()
	rows := make([]Row, len(coords))

	var err error
	if workers <= 1 {
		err = probeSequential(ctx, k, stage, in, coords, rows)
	} else {
		err = probeParallel(ctx, k, stage, in, coords, rows, workers)
	}
	if err != nil {
		return StageConnectivity{}, err
	}

	return StageConnectivity{
		Stage:  name,
		Input:  in.Clone(),
		Output: out.Clone(),
		Rows:   rows,
	}, nil
}

// probeSequential reuses one buffer: Hot is set at the probed coordinate and
// reset to Cold before the next probe, keeping at most one Hot element at
// any time.
func probeSequential(ctx context.Context, k int, stage layer.Stage, in tensor.Shape, coords []tensor.Coordinate, rows []Row) error {
	buffer, err := tensor.Filled(in, algebra.Cold)
	if err != nil {
		return err
	}
	for i, c := range coords {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := buffer.Set(c, algebra.Hot); err != nil {
			return err
		}
		result, err := stage.Apply(buffer)
		if err != nil {
			return &ExecutionError{Stage: k, Probe: c.Key(), Err: err}
		}
		if err := buffer.Set(c, algebra.Cold); err != nil {
			return err
		}
		rows[i] = Row{From: c, To: result.HotCoordinates()}
	}
	return nil
}

// probeParallel allocates a fresh buffer per probe; probes are mutually
// independent, so rows land at their coordinate's enumeration index and the
// result is identical to a sequential trace.
func probeParallel(ctx context.Context, k int, stage layer.Stage, in tensor.Shape, coords []tensor.Coordinate, rows []Row, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range coords {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			probe, err := tensor.OneHot(in, c)
			if err != nil {
				return err
			}
			result, err := stage.Apply(probe)
			if err != nil {
				return &ExecutionError{Stage: k, Probe: c.Key(), Err: err}
			}
			rows[i] = Row{From: c, To: result.HotCoordinates()}
			return nil
		})
	}
	return g.Wait()
}
