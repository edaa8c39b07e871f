package storage

import (
	"context"
	"fmt"
	"time"

	"slochecker/internal/eval"
)

// ResultStore defines the interface for persisting evaluation records.
// Save is append-only: one row per call, keyed by a generated id, and
// no deduplication — if a caller ever retries a save after an ambiguous
// failure (a timeout where the write may have landed), a duplicate row
// for the same evaluated_at is an accepted consequence. This is
// observability data, not a ledger.
type ResultStore interface {
	// Save durably commits one evaluation record. Success means the
	// record is visible to subsequent List/Latest calls.
	Save(ctx context.Context, record eval.Record) error

	// List retrieves stored records with optional filtering, newest first.
	List(ctx context.Context, filter RecordFilter) ([]StoredRecord, error)

	// Latest retrieves the most recent record for an SLO, or nil if
	// none has been stored.
	Latest(ctx context.Context, sloName string) (*StoredRecord, error)

	// Close closes the storage connection.
	Close() error
}

// RecordFilter defines filtering options for List
type RecordFilter struct {
	SLOName   string
	Verdict   string // MET, VIOLATED, INDETERMINATE
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// StoredRecord is an evaluation record as read back from the store.
type StoredRecord struct {
	ID          int64
	SLOName     string
	Value       float64 // NaN when the stored value was NULL (indeterminate)
	Verdict     eval.Verdict
	EvaluatedAt time.Time
	CreatedAt   time.Time
}

// StoreErrorKind classifies a failed store operation.
type StoreErrorKind string

const (
	// StoreConnection: cannot reach the database.
	StoreConnection StoreErrorKind = "connection"
	// StoreWrite: constraint violation, disk full, bad statement.
	StoreWrite StoreErrorKind = "write"
)

// StoreError is the typed error returned by ResultStore implementations.
type StoreError struct {
	Kind StoreErrorKind
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s error: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}
