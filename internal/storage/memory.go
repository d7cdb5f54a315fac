package storage

import (
	"context"
	"errors"
	"sync"

	"synaptrace/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	traces      map[string]model.TraceRecord
	order       []string // trace IDs, oldest first
	summaries   map[string]model.TraceSummaryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.traces = make(map[string]model.TraceRecord)
	s.order = nil
	s.summaries = make(map[string]model.TraceSummaryRecord)
	return nil
}

func (s *MemoryStore) SaveTrace(_ context.Context, record model.TraceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if _, exists := s.traces[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.traces[record.ID] = record
	return nil
}

func (s *MemoryStore) GetTrace(_ context.Context, id string) (model.TraceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.traces[id]
	return record, ok, nil
}

// ListTraces returns traces newest first. A limit of zero or less returns
// everything.
func (s *MemoryStore) ListTraces(_ context.Context, limit int) ([]model.TraceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TraceRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.traces[s.order[i]])
	}
	return out, nil
}

func (s *MemoryStore) DeleteTrace(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.traces[id]; !ok {
		return nil
	}
	delete(s.traces, id)
	delete(s.summaries, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) SaveSummary(_ context.Context, record model.TraceSummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.summaries[record.TraceID] = record
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context, traceID string) (model.TraceSummaryRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.summaries[traceID]
	return record, ok, nil
}
