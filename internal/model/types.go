package model

import "synaptrace/internal/tensor"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version" yaml:"schema_version"`
	CodecVersion  int `json:"codec_version" yaml:"codec_version"`
}

// StageSpec declares one stage of a chain. Kind selects the stage type; the
// remaining fields apply per kind. Numeric parameters are not part of the
// record: connectivity is independent of weight values, so stages built from
// a spec carry synthesized parameters.
type StageSpec struct {
	Kind       string `json:"kind" yaml:"kind"`
	In         int    `json:"in,omitempty" yaml:"in,omitempty"`
	Out        int    `json:"out,omitempty" yaml:"out,omitempty"`
	Width      int    `json:"width,omitempty" yaml:"width,omitempty"`
	Activation string `json:"activation,omitempty" yaml:"activation,omitempty"`
	Taps       []int  `json:"taps,omitempty" yaml:"taps,omitempty"`
	Keep       []bool `json:"keep,omitempty" yaml:"keep,omitempty"`
	To         []int  `json:"to,omitempty" yaml:"to,omitempty"`
	Copies     int    `json:"copies,omitempty" yaml:"copies,omitempty"`
	Kernel     int    `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Stride     int    `json:"stride,omitempty" yaml:"stride,omitempty"`
}

// ChainSpec declares an ordered chain of stages.
type ChainSpec struct {
	VersionedRecord `yaml:",inline"`
	Name            string      `json:"name" yaml:"name"`
	Stages          []StageSpec `json:"stages" yaml:"stages"`
}

// ConnectivityRow maps one input coordinate to the set of output coordinates
// it can reach, sorted in enumeration order.
type ConnectivityRow struct {
	From tensor.Coordinate   `json:"from"`
	To   []tensor.Coordinate `json:"to"`
}

// StageConnectivity is the complete connectivity map of one stage: one row
// per input coordinate, rows in input enumeration order.
type StageConnectivity struct {
	Stage  string            `json:"stage"`
	Input  tensor.Shape      `json:"input"`
	Output tensor.Shape      `json:"output"`
	Rows   []ConnectivityRow `json:"rows"`
}

// Reachable returns the output coordinates reachable from the given input
// coordinate, or nil when the coordinate has no row.
func (sc StageConnectivity) Reachable(from tensor.Coordinate) []tensor.Coordinate {
	for _, row := range sc.Rows {
		if row.From.Equal(from) {
			return row.To
		}
	}
	return nil
}

// TraceRecord is one persisted connectivity trace of a chain.
type TraceRecord struct {
	VersionedRecord
	ID           string              `json:"id"`
	CreatedAtUTC string              `json:"created_at_utc"`
	Fingerprint  string              `json:"fingerprint"`
	Chain        ChainSpec           `json:"chain"`
	Shapes       []tensor.Shape      `json:"shapes"`
	Stages       []StageConnectivity `json:"stages"`
	Workers      int                 `json:"workers"`
}

// DegreeStats summarizes the fan-out structure of one stage's connectivity.
type DegreeStats struct {
	Stage              string  `json:"stage"`
	Inputs             int     `json:"inputs"`
	Outputs            int     `json:"outputs"`
	MeanFanOut         float64 `json:"mean_fan_out"`
	StdFanOut          float64 `json:"std_fan_out"`
	MinFanOut          int     `json:"min_fan_out"`
	MaxFanOut          int     `json:"max_fan_out"`
	DisconnectedInputs int     `json:"disconnected_inputs"`
	UnreachedOutputs   int     `json:"unreached_outputs"`
}

// TraceSummaryRecord is the persisted per-stage degree summary of a trace.
type TraceSummaryRecord struct {
	VersionedRecord
	TraceID string        `json:"trace_id"`
	Stages  []DegreeStats `json:"stages"`
}
