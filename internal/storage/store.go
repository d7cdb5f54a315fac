package storage

import (
	"context"

	"synaptrace/internal/model"
)

// Store defines persistence operations for connectivity traces and their
// derived summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveTrace(ctx context.Context, record model.TraceRecord) error
	GetTrace(ctx context.Context, id string) (model.TraceRecord, bool, error)
	ListTraces(ctx context.Context, limit int) ([]model.TraceRecord, error)
	DeleteTrace(ctx context.Context, id string) error
	SaveSummary(ctx context.Context, record model.TraceSummaryRecord) error
	GetSummary(ctx context.Context, traceID string) (model.TraceSummaryRecord, bool, error)
}
