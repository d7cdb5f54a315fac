package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"synaptrace/internal/model"
	"synaptrace/internal/tensor"
)

func sampleTrace(id string) model.TraceRecord {
	return model.TraceRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		CreatedAtUTC:    "2026-08-26T10:00:00Z",
		Fingerprint:     "fp-" + id,
		Chain: model.ChainSpec{
			VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
			Name:            "probe-chain",
			Stages:          []model.StageSpec{{Kind: "dense", In: 2, Out: 1}},
		},
		Shapes: []tensor.Shape{{2}, {1}},
		Stages: []model.StageConnectivity{
			{
				Stage:  "dense",
				Input:  tensor.Shape{2},
				Output: tensor.Shape{1},
				Rows: []model.ConnectivityRow{
					{From: tensor.Coordinate{1}, To: []tensor.Coordinate{{1}}},
					{From: tensor.Coordinate{2}, To: []tensor.Coordinate{{1}}},
				},
			},
		},
	}
}

func TestMemoryStoreTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	record := sampleTrace("t1")
	require.NoError(t, store.SaveTrace(ctx, record))

	loaded, ok, err := store.GetTrace(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record, loaded)

	_, ok, err = store.GetTrace(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	require.Error(t, store.SaveTrace(context.Background(), sampleTrace("t1")))
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.SaveTrace(ctx, sampleTrace(fmt.Sprintf("t%d", i))))
	}

	all, err := store.ListTraces(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "t3", all[0].ID)
	require.Equal(t, "t1", all[2].ID)

	limited, err := store.ListTraces(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "t3", limited[0].ID)
}

func TestMemoryStoreDeleteTrace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, store.SaveTrace(ctx, sampleTrace("t1")))
	require.NoError(t, store.SaveSummary(ctx, model.TraceSummaryRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		TraceID:         "t1",
	}))

	require.NoError(t, store.DeleteTrace(ctx, "t1"))
	_, ok, err := store.GetTrace(ctx, "t1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = store.GetSummary(ctx, "t1")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting a missing trace is a no-op.
	require.NoError(t, store.DeleteTrace(ctx, "t1"))
}

func TestMemoryStoreSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	record := model.TraceSummaryRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		TraceID:         "t1",
		Stages:          []model.DegreeStats{{Stage: "dense", Inputs: 2, Outputs: 1, MeanFanOut: 1}},
	}
	require.NoError(t, store.SaveSummary(ctx, record))

	loaded, ok, err := store.GetSummary(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record, loaded)
}
