package layer

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"synaptrace/internal/model"
)

var ErrUnknownStageKind = errors.New("unknown stage kind")

// FromSpec builds a runnable chain from its declarative record. Parameter
// values are synthesized as zeros: connectivity is independent of them.
func FromSpec(spec model.ChainSpec) (Chain, error) {
	chain := make(Chain, 0, len(spec.Stages))
	for i, ss := range spec.Stages {
		stage, err := stageFromSpec(ss)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i+1, err)
		}
		chain = append(chain, stage)
	}
	return chain, nil
}

func stageFromSpec(ss model.StageSpec) (Stage, error) {
	switch ss.Kind {
	case "dense":
		return NewDense(ss.In, ss.Out, nil, nil)
	case "elementwise":
		return NewElementwise(ss.Activation)
	case "bias":
		if ss.Width < 1 {
			return nil, fmt.Errorf("%w: bias needs width>=1", ErrBadStageConfig)
		}
		return NewBias(make([]float64, ss.Width))
	case "select":
		return NewSelect(ss.Taps)
	case "mask":
		return NewMask(ss.Keep)
	case "reshape":
		return NewReshape(ss.To)
	case "fanout":
		return NewFanout(ss.Copies)
	case "conv1d":
		stride := ss.Stride
		if stride == 0 {
			stride = 1
		}
		if ss.Kernel < 1 {
			return nil, fmt.Errorf("%w: conv1d needs kernel>=1", ErrBadStageConfig)
		}
		return NewConv1D(make([]float64, ss.Kernel), stride)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStageKind, ss.Kind)
	}
}

// Fingerprint hashes the structural content of a chain spec in a
// deterministic text encoding. Two specs with the same wiring pattern share
// a fingerprint regardless of record metadata.
func Fingerprint(spec model.ChainSpec) string {
	parts := make([]string, 0, len(spec.Stages))
	for _, ss := range spec.Stages {
		seg := []string{
			"k=" + ss.Kind,
			"i=" + strconv.Itoa(ss.In),
			"o=" + strconv.Itoa(ss.Out),
			"w=" + strconv.Itoa(ss.Width),
			"a=" + ss.Activation,
			"c=" + strconv.Itoa(ss.Copies),
			"kn=" + strconv.Itoa(ss.Kernel),
			"st=" + strconv.Itoa(ss.Stride),
			"t=" + joinInts(ss.Taps),
			"r=" + joinInts(ss.To),
			"m=" + joinBools(ss.Keep),
		}
		parts = append(parts, strings.Join(seg, ":"))
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinBools(values []bool) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatBool(v)
	}
	return strings.Join(parts, ",")
}
