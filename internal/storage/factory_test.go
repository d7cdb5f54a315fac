package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// An empty kind defaults to memory.
	store, err = NewStore("", "")
	require.NoError(t, err)
	require.NotNil(t, store)
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("unknown", "")
	require.Error(t, err)
}

func TestCloseIfSupportedOnMemory(t *testing.T) {
	require.NoError(t, CloseIfSupported(NewMemoryStore()))
}

func TestDefaultStoreKind(t *testing.T) {
	require.Equal(t, "memory", DefaultStoreKind())
}
