package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"slochecker/internal/eval"
	"slochecker/internal/storage"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_SaveRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	evaluatedAt := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	record := eval.Record{
		SLOName:     "availability",
		Value:       0.9995,
		Verdict:     eval.VerdictMet,
		EvaluatedAt: evaluatedAt,
	}

	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	records, err := store.List(ctx, storage.RecordFilter{SLOName: "availability"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}

	got := records[0]
	if got.SLOName != "availability" {
		t.Errorf("expected slo_name availability, got %s", got.SLOName)
	}
	if got.Value != 0.9995 {
		t.Errorf("expected value 0.9995 bit-for-bit, got %v", got.Value)
	}
	if got.Verdict != eval.VerdictMet {
		t.Errorf("expected verdict MET, got %s", got.Verdict)
	}
	if !got.EvaluatedAt.Equal(evaluatedAt) {
		t.Errorf("expected evaluated_at %v, got %v", evaluatedAt, got.EvaluatedAt)
	}
	if got.ID == 0 {
		t.Error("expected generated id")
	}
}

func TestStore_IndeterminateNaNRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	record := eval.Indeterminate("availability", time.Now().UTC())
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	records, err := store.List(ctx, storage.RecordFilter{SLOName: "availability"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if !math.IsNaN(records[0].Value) {
		t.Errorf("expected NaN value for indeterminate record, got %v", records[0].Value)
	}
	if records[0].Verdict != eval.VerdictIndeterminate {
		t.Errorf("expected INDETERMINATE, got %s", records[0].Verdict)
	}
}

func TestStore_AppendOnly(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	// A retried save of the same record appends a second row: the
	// store never deduplicates.
	record := eval.Record{
		SLOName:     "availability",
		Value:       0.99,
		Verdict:     eval.VerdictViolated,
		EvaluatedAt: time.Now().UTC(),
	}

	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	records, err := store.List(ctx, storage.RecordFilter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 rows after retried save, got %d", len(records))
	}
	if records[0].ID == records[1].ID {
		t.Error("expected distinct generated ids")
	}
}

func TestStore_ListFilters(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	saves := []eval.Record{
		{SLOName: "availability", Value: 0.9995, Verdict: eval.VerdictMet, EvaluatedAt: base},
		{SLOName: "availability", Value: 0.99, Verdict: eval.VerdictViolated, EvaluatedAt: base.Add(time.Minute)},
		{SLOName: "latency_p99", Value: 250, Verdict: eval.VerdictViolated, EvaluatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range saves {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	records, err := store.List(ctx, storage.RecordFilter{SLOName: "availability"})
	if err != nil {
		t.Fatalf("list by slo failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 availability records, got %d", len(records))
	}

	records, err = store.List(ctx, storage.RecordFilter{Verdict: "VIOLATED"})
	if err != nil {
		t.Fatalf("list by verdict failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 violated records, got %d", len(records))
	}

	start := base.Add(30 * time.Second)
	records, err = store.List(ctx, storage.RecordFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("list by start time failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records after %v, got %d", start, len(records))
	}

	records, err = store.List(ctx, storage.RecordFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list with limit failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record with limit, got %d", len(records))
	}
	// Newest first
	if records[0].SLOName != "latency_p99" {
		t.Errorf("expected newest record first, got %s", records[0].SLOName)
	}
}

func TestStore_Latest(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	for i, verdict := range []eval.Verdict{eval.VerdictMet, eval.VerdictViolated} {
		record := eval.Record{
			SLOName:     "availability",
			Value:       float64(i),
			Verdict:     verdict,
			EvaluatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	latest, err := store.Latest(ctx, "availability")
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected latest record, got nil")
	}
	if latest.Verdict != eval.VerdictViolated {
		t.Errorf("expected most recent verdict VIOLATED, got %s", latest.Verdict)
	}
}

func TestStore_Latest_NotFound(t *testing.T) {
	store := setupTestDB(t)

	latest, err := store.Latest(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Error("expected nil for SLO with no history")
	}
}
