package logstore

import (
	"context"
	"log"
	"sync"

	"slochecker/internal/eval"
	"slochecker/internal/storage"
)

// Store is a log-only storage.ResultStore for running the checker
// without a database. Records are logged and kept in memory so the
// history API still works; nothing survives a restart.
type Store struct {
	mu      sync.RWMutex
	records []storage.StoredRecord
	nextID  int64
}

// NewStore creates a new log-only store
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Save logs the record and appends it to the in-memory history
func (s *Store) Save(_ context.Context, record eval.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := storage.StoredRecord{
		ID:          s.nextID,
		SLOName:     record.SLOName,
		Value:       record.Value,
		Verdict:     record.Verdict,
		EvaluatedAt: record.EvaluatedAt,
		CreatedAt:   record.EvaluatedAt,
	}
	s.nextID++
	s.records = append(s.records, stored)

	log.Printf("logstore: slo=%s value=%v verdict=%s evaluated_at=%s",
		record.SLOName, record.Value, record.Verdict, record.EvaluatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// List retrieves in-memory records, newest first
func (s *Store) List(_ context.Context, filter storage.RecordFilter) ([]storage.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []storage.StoredRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if filter.SLOName != "" && r.SLOName != filter.SLOName {
			continue
		}
		if filter.Verdict != "" && string(r.Verdict) != filter.Verdict {
			continue
		}
		if filter.StartTime != nil && r.EvaluatedAt.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && r.EvaluatedAt.After(*filter.EndTime) {
			continue
		}
		matched = append(matched, r)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Latest retrieves the most recent in-memory record for an SLO
func (s *Store) Latest(ctx context.Context, sloName string) (*storage.StoredRecord, error) {
	records, err := s.List(ctx, storage.RecordFilter{SLOName: sloName, Limit: 1})
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
