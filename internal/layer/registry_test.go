package layer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"synaptrace/internal/algebra"
)

func TestRegisterAndGetActivation(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.NoError(t, RegisterScalarActivation("quad", func(x float64) float64 { return x * x }))
	fn, err := GetActivation("quad")
	require.NoError(t, err)
	require.Equal(t, algebra.Value(algebra.Real(9)), fn(algebra.Real(3)))
}

func TestRegisterActivationValidation(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.Error(t, RegisterActivation("", func(v algebra.Value) algebra.Value { return v }))
	require.Error(t, RegisterActivation("nil", nil))
	require.Error(t, RegisterScalarActivation("nil-scalar", nil))
}

func TestRegisterActivationDuplicate(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.NoError(t, RegisterScalarActivation("dup", func(x float64) float64 { return x }))
	err := RegisterScalarActivation("dup", func(x float64) float64 { return x })
	require.ErrorIs(t, err, ErrActivationExists)
}

func TestGetActivationNotFound(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	_, err := GetActivation("missing")
	require.ErrorIs(t, err, ErrActivationNotFound)
}

func TestListActivationsSorted(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.NoError(t, RegisterScalarActivation("b", func(x float64) float64 { return x }))
	require.NoError(t, RegisterScalarActivation("a", func(x float64) float64 { return x }))

	names := ListActivations()
	require.GreaterOrEqual(t, len(names), 6, "built-ins plus custom activations")
	require.Equal(t, "a", names[0])
	require.Equal(t, "b", names[1])
}

func TestBuiltinsAvailable(t *testing.T) {
	for _, name := range []string{"identity", "relu", "tanh", "sigmoid"} {
		fn, err := GetActivation(name)
		require.NoError(t, err, "builtin %s", name)
		_ = fn(algebra.Real(1))
	}
}

func TestActivationsPassSignalsThrough(t *testing.T) {
	// Every activation is routed through unary element operations, so a
	// probe signal can never be blocked or created by a nonlinearity.
	for _, name := range []string{"identity", "relu", "tanh", "sigmoid"} {
		fn, err := GetActivation(name)
		require.NoError(t, err)
		require.Equal(t, algebra.Value(algebra.Hot), fn(algebra.Hot), "%s(hot)", name)
		require.Equal(t, algebra.Value(algebra.Cold), fn(algebra.Cold), "%s(cold)", name)
	}
}
