package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"slochecker/internal/eval"
	"slochecker/internal/storage"
)

// Store implements storage.ResultStore on SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store with the given database path
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save appends one evaluation record. NaN values (indeterminate
// verdicts) are stored as NULL; SQLite cannot hold NaN in a REAL column.
func (s *Store) Save(ctx context.Context, record eval.Record) error {
	value := sql.NullFloat64{Float64: record.Value, Valid: !math.IsNaN(record.Value)}

	query := `
		INSERT INTO evaluations (slo_name, value, verdict, evaluated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.SLOName,
		value,
		string(record.Verdict),
		record.EvaluatedAt,
	)
	if err != nil {
		return &storage.StoreError{Kind: classify(err), Err: err}
	}

	return nil
}

// List retrieves stored records with optional filtering, newest first
func (s *Store) List(ctx context.Context, filter storage.RecordFilter) ([]storage.StoredRecord, error) {
	query := `
		SELECT id, slo_name, value, verdict, evaluated_at, created_at
		FROM evaluations
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.SLOName != "" {
		query += " AND slo_name = ?"
		args = append(args, filter.SLOName)
	}

	if filter.Verdict != "" {
		query += " AND verdict = ?"
		args = append(args, filter.Verdict)
	}

	if filter.StartTime != nil {
		query += " AND evaluated_at >= ?"
		args = append(args, filter.StartTime)
	}

	if filter.EndTime != nil {
		query += " AND evaluated_at <= ?"
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY evaluated_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 100" // Default limit
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &storage.StoreError{Kind: classify(err), Err: err}
	}
	defer rows.Close()

	var records []storage.StoredRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Latest retrieves the most recent record for an SLO
func (s *Store) Latest(ctx context.Context, sloName string) (*storage.StoredRecord, error) {
	query := `
		SELECT id, slo_name, value, verdict, evaluated_at, created_at
		FROM evaluations
		WHERE slo_name = ?
		ORDER BY evaluated_at DESC, id DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, sloName)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &storage.StoreError{Kind: classify(err), Err: err}
	}

	return &record, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (storage.StoredRecord, error) {
	var record storage.StoredRecord
	var value sql.NullFloat64
	var verdict string

	err := row.Scan(
		&record.ID,
		&record.SLOName,
		&value,
		&verdict,
		&record.EvaluatedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return storage.StoredRecord{}, err
	}

	record.Verdict = eval.Verdict(verdict)
	if value.Valid {
		record.Value = value.Float64
	} else {
		record.Value = math.NaN()
	}

	return record, nil
}

// classify maps driver errors onto the store error taxonomy. The SQLite
// driver is in-process, so anything past Open is a write-path failure.
func classify(err error) storage.StoreErrorKind {
	if err == sql.ErrConnDone {
		return storage.StoreConnection
	}
	return storage.StoreWrite
}
