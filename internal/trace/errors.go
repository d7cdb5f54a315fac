package trace

import "fmt"

// ConfigurationError reports that the input shape of a chain could not be
// determined: no sample or shape was supplied and the first stage declares
// no fixed input width.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "trace configuration: " + e.Reason
}

// ExecutionError wraps a failure raised by a stage during shape probing or
// connectivity probing. The trace that triggered it is aborted with no
// partial result; stage execution is assumed deterministic, so there are no
// retries.
type ExecutionError struct {
	Stage int    // zero-based position in the chain
	Probe string // probed input coordinate key, empty during shape probing
	Err   error
}

func (e *ExecutionError) Error() string {
	if e.Probe == "" {
		return fmt.Sprintf("stage %d: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %d, probe %s: %v", e.Stage, e.Probe, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
