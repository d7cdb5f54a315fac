// Package synaptrace is the public facade over the connectivity-inference
// engine: it builds chains from declarative specs, runs shape probing and
// connectivity tracing, persists the results, and serves them back.
package synaptrace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"synaptrace/internal/layer"
	"synaptrace/internal/model"
	"synaptrace/internal/storage"
	"synaptrace/internal/tensor"
	"synaptrace/internal/trace"
)

const (
	defaultDBPath    = "synaptrace.db"
	defaultCacheSize = 64
)

var ErrTraceNotFound = errors.New("trace not found")

type Options struct {
	StoreKind string // memory|sqlite, defaults to memory
	DBPath    string
	Workers   int // default probe parallelism, <=1 is sequential
	CacheSize int
	Logger    *zap.Logger
}

type Client struct {
	store   storage.Store
	log     *zap.Logger
	workers int
	cache   *lru.Cache[string, model.TraceRecord]
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, model.TraceRecord](size)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{store: store, log: log, workers: opts.Workers, cache: cache}, nil
}

func (c *Client) Init(ctx context.Context) error { return c.store.Init(ctx) }

func (c *Client) Close() error { return storage.CloseIfSupported(c.store) }

type TraceRequest struct {
	Chain      model.ChainSpec
	InputShape tensor.Shape // optional when the first stage declares a fixed width
	Workers    int          // overrides client default when > 0
	NoCache    bool
}

type TraceResult struct {
	TraceID     string
	Fingerprint string
	Shapes      []tensor.Shape
	Stages      []trace.StageConnectivity
	CacheHit    bool
}

// Trace runs a full connectivity trace of the requested chain. A trace is a
// pure function of the chain structure and input shape, so repeated requests
// are served from an LRU cache keyed by chain fingerprint and shape.
func (c *Client) Trace(ctx context.Context, req TraceRequest) (TraceResult, error) {
	chain, err := layer.FromSpec(req.Chain)
	if err != nil {
		return TraceResult{}, err
	}
	fingerprint := layer.Fingerprint(req.Chain)
	key := fingerprint + "@" + req.InputShape.String()

	if !req.NoCache {
		if record, ok := c.cache.Get(key); ok {
			c.log.Debug("trace cache hit",
				zap.String("trace_id", record.ID),
				zap.String("fingerprint", fingerprint))
			return resultFromRecord(record, true), nil
		}
	}

	workers := req.Workers
	if workers <= 0 {
		workers = c.workers
	}

	input := trace.Input{Shape: req.InputShape}
	shapes, err := trace.ProbeShapes(ctx, chain, input)
	if err != nil {
		return TraceResult{}, err
	}
	c.log.Debug("boundary shapes probed", zap.Int("boundaries", len(shapes)))

	stages, err := trace.TraceWithShapes(ctx, chain, shapes, trace.Options{Workers: workers})
	if err != nil {
		return TraceResult{}, err
	}

	chainSpec := req.Chain
	chainSpec.SchemaVersion = storage.CurrentSchemaVersion
	chainSpec.CodecVersion = storage.CurrentCodecVersion

	record := model.TraceRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           uuid.NewString(),
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Fingerprint:  fingerprint,
		Chain:        chainSpec,
		Shapes:       shapes,
		Stages:       stages,
		Workers:      workers,
	}
	if err := c.store.SaveTrace(ctx, record); err != nil {
		return TraceResult{}, err
	}
	c.cache.Add(key, record)

	c.log.Info("trace complete",
		zap.String("trace_id", record.ID),
		zap.String("fingerprint", fingerprint),
		zap.Int("stages", len(stages)),
		zap.Int("workers", workers))
	return resultFromRecord(record, false), nil
}

func resultFromRecord(record model.TraceRecord, cacheHit bool) TraceResult {
	return TraceResult{
		TraceID:     record.ID,
		Fingerprint: record.Fingerprint,
		Shapes:      record.Shapes,
		Stages:      record.Stages,
		CacheHit:    cacheHit,
	}
}

// ProbeShapes determines boundary shapes only, without tracing.
func (c *Client) ProbeShapes(ctx context.Context, spec model.ChainSpec, inputShape tensor.Shape) ([]tensor.Shape, error) {
	chain, err := layer.FromSpec(spec)
	if err != nil {
		return nil, err
	}
	return trace.ProbeShapes(ctx, chain, trace.Input{Shape: inputShape})
}

func (c *Client) Get(ctx context.Context, traceID string) (model.TraceRecord, bool, error) {
	return c.store.GetTrace(ctx, traceID)
}

type TraceItem struct {
	TraceID      string
	CreatedAtUTC string
	Name         string
	Fingerprint  string
	Stages       int
}

func (c *Client) List(ctx context.Context, limit int) ([]TraceItem, error) {
	records, err := c.store.ListTraces(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]TraceItem, 0, len(records))
	for _, record := range records {
		items = append(items, TraceItem{
			TraceID:      record.ID,
			CreatedAtUTC: record.CreatedAtUTC,
			Name:         record.Chain.Name,
			Fingerprint:  record.Fingerprint,
			Stages:       len(record.Stages),
		})
	}
	return items, nil
}

// Summary returns per-stage degree statistics for a stored trace, computing
// and persisting them on first request.
func (c *Client) Summary(ctx context.Context, traceID string) (model.TraceSummaryRecord, error) {
	if cached, ok, err := c.store.GetSummary(ctx, traceID); err != nil {
		return model.TraceSummaryRecord{}, err
	} else if ok {
		return cached, nil
	}

	record, ok, err := c.store.GetTrace(ctx, traceID)
	if err != nil {
		return model.TraceSummaryRecord{}, err
	}
	if !ok {
		return model.TraceSummaryRecord{}, fmt.Errorf("%w: %s", ErrTraceNotFound, traceID)
	}

	summary := model.TraceSummaryRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		TraceID: traceID,
		Stages:  trace.Summarize(record.Stages),
	}
	if err := c.store.SaveSummary(ctx, summary); err != nil {
		return model.TraceSummaryRecord{}, err
	}
	return summary, nil
}

// ComposeStages derives the combined connectivity of stages k and k+1 of a
// stored trace, as if they had been traced as one stage.
func (c *Client) ComposeStages(ctx context.Context, traceID string, k int) (trace.StageConnectivity, error) {
	record, ok, err := c.store.GetTrace(ctx, traceID)
	if err != nil {
		return trace.StageConnectivity{}, err
	}
	if !ok {
		return trace.StageConnectivity{}, fmt.Errorf("%w: %s", ErrTraceNotFound, traceID)
	}
	if k < 0 || k+1 >= len(record.Stages) {
		return trace.StageConnectivity{}, fmt.Errorf("stage pair %d out of range for %d stages", k, len(record.Stages))
	}
	return trace.Compose(record.Stages[k], record.Stages[k+1])
}
