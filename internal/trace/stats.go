package trace

import (
	"math"

	"synaptrace/internal/model"
)

// Summarize reduces connectivity maps to per-stage fan-out statistics:
// degree mean and spread, plus the inputs that reach nothing and the outputs
// nothing reaches.
func Summarize(stages []StageConnectivity) []model.DegreeStats {
	out := make([]model.DegreeStats, 0, len(stages))
	for _, sc := range stages {
		st := model.DegreeStats{
			Stage:   sc.Stage,
			Inputs:  sc.Input.Len(),
			Outputs: sc.Output.Len(),
		}
		if len(sc.Rows) > 0 {
			degrees := make([]float64, len(sc.Rows))
			reached := make(map[string]bool)
			st.MinFanOut = len(sc.Rows[0].To)
			for i, row := range sc.Rows {
				d := len(row.To)
				degrees[i] = float64(d)
				if d == 0 {
					st.DisconnectedInputs++
				}
				if d < st.MinFanOut {
					st.MinFanOut = d
				}
				if d > st.MaxFanOut {
					st.MaxFanOut = d
				}
				for _, to := range row.To {
					reached[to.Key()] = true
				}
			}
			st.MeanFanOut = mean(degrees)
			st.StdFanOut = std(degrees)
			st.UnreachedOutputs = st.Outputs - len(reached)
		}
		out = append(out, st)
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// std is the population standard deviation.
func std(values []float64) float64 {
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		diff := m - v
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)))
}
