package storage

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunRecord
	snapshots   map[string]SnapshotRecord
	summaries   map[string][]SummaryRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunRecord)
	s.snapshots = make(map[string]SnapshotRecord)
	s.summaries = make(map[string][]SummaryRow)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.ID] = snapshot
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (SnapshotRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[id]
	return snapshot, ok, nil
}

func (s *MemoryStore) SaveSummaries(_ context.Context, runID string, rows []SummaryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]SummaryRow, len(rows))
	copy(copied, rows)
	s.summaries[runID] = copied
	return nil
}

func (s *MemoryStore) GetSummaries(_ context.Context, runID string) ([]SummaryRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.summaries[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]SummaryRow, len(rows))
	copy(copied, rows)
	return copied, true, nil
}
