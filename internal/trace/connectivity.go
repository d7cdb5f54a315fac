package trace

import (
	"fmt"
	"sort"

	"synaptrace/internal/model"
	"synaptrace/internal/tensor"
)

// StageConnectivity is the per-stage connectivity map: one row per input
// coordinate, in input enumeration order, each holding the sorted set of
// output coordinates reachable from it.
type StageConnectivity = model.StageConnectivity

// Row is one connectivity map entry.
type Row = model.ConnectivityRow

// Compose derives the connectivity of two consecutive stages as if they were
// traced as a single composed stage: the union over intermediate coordinates.
// The union rule matches direct tracing because signal combination is an
// associative OR.
func Compose(a, b StageConnectivity) (StageConnectivity, error) {
	if !a.Output.Equal(b.Input) {
		return StageConnectivity{}, fmt.Errorf("compose: output shape %s does not match input shape %s", a.Output, b.Input)
	}

	next := make(map[string][]tensor.Coordinate, len(b.Rows))
	for _, row := range b.Rows {
		next[row.From.Key()] = row.To
	}

	out := StageConnectivity{
		Stage:  a.Stage + "+" + b.Stage,
		Input:  a.Input.Clone(),
		Output: b.Output.Clone(),
		Rows:   make([]Row, 0, len(a.Rows)),
	}
	for _, row := range a.Rows {
		seen := make(map[string]bool)
		var union []tensor.Coordinate
		for _, mid := range row.To {
			for _, to := range next[mid.Key()] {
				if seen[to.Key()] {
					continue
				}
				seen[to.Key()] = true
				union = append(union, to)
			}
		}
		sort.Slice(union, func(i, j int) bool {
			return tensor.Compare(union[i], union[j]) < 0
		})
		out.Rows = append(out.Rows, Row{From: row.From.Clone(), To: union})
	}
	return out, nil
}
