package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net"

	"github.com/lib/pq"

	"slochecker/internal/eval"
	"slochecker/internal/storage"
)

// Store implements storage.ResultStore on PostgreSQL
type Store struct {
	db *sql.DB
}

// NewStore connects to PostgreSQL with the given connection URL and
// runs migrations. The initial ping is the startup gate: a checker that
// cannot reach its database should exit rather than drop every record.
func NewStore(connURL string) (*Store, error) {
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save appends one evaluation record. NaN maps to NULL, as in the
// SQLite store.
func (s *Store) Save(ctx context.Context, record eval.Record) error {
	value := sql.NullFloat64{Float64: record.Value, Valid: !math.IsNaN(record.Value)}

	query := `
		INSERT INTO evaluations (slo_name, value, verdict, evaluated_at)
		VALUES ($1, $2, $3, $4)
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
		args = append(args, filter.SLOName)
		query += fmt.Sprintf(" AND slo_name = $%d", len(args))
	}

	if filter.Verdict != "" {
		args = append(args, filter.Verdict)
		query += fmt.Sprintf(" AND verdict = $%d", len(args))
	}

	if filter.StartTime != nil {
		args = append(args, filter.StartTime)
		query += fmt.Sprintf(" AND evaluated_at >= $%d", len(args))
	}

	if filter.EndTime != nil {
		args = append(args, filter.EndTime)
		query += fmt.Sprintf(" AND evaluated_at <= $%d", len(args))
	}

	query += " ORDER BY evaluated_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100 // Default limit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
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
		WHERE slo_name = $1
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

// classify maps driver errors onto the store error taxonomy: transport
// failures are connection errors, server-reported errors are write
// errors.
func classify(err error) storage.StoreErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return storage.StoreConnection
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return storage.StoreWrite
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return storage.StoreConnection
	}

	return storage.StoreWrite
}
