package scheduler

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"slochecker/internal/adapter/synthetic"
	"slochecker/internal/eval"
	"slochecker/internal/slo"
	"slochecker/internal/storage"
)

// fakeStore records saves in memory and can be told to fail.
type fakeStore struct {
	mu       sync.Mutex
	records  []eval.Record
	failWith error
}

func (f *fakeStore) Save(_ context.Context, record eval.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeStore) List(_ context.Context, filter storage.RecordFilter) ([]storage.StoredRecord, error) {
	return nil, nil
}

func (f *fakeStore) Latest(_ context.Context, _ string) (*storage.StoredRecord, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) setFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeStore) saved() []eval.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]eval.Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f *fakeStore) savedFor(name string) []eval.Record {
	var out []eval.Record
	for _, r := range f.saved() {
		if r.SLOName == name {
			out = append(out, r)
		}
	}
	return out
}

// slowSource blocks every fetch until released.
type slowSource struct {
	release chan struct{}
}

func (s *slowSource) FetchInstant(ctx context.Context, _ string, _ time.Time) (float64, error) {
	select {
	case <-s.release:
		return 1, nil
	case <-ctx.Done():
		return 0, &eval.FetchError{Kind: eval.FetchNetwork, Err: ctx.Err()}
	}
}

func twoDefinitions() []slo.DefinitionWithFile {
	return []slo.DefinitionWithFile{
		{Definition: &slo.Definition{Name: "availability", Query: "avail_query", Comparison: slo.ComparisonGTE, Threshold: 0.999}},
		{Definition: &slo.Definition{Name: "latency_p99", Query: "latency_query", Comparison: slo.ComparisonLTE, Threshold: 200}},
	}
}

func TestScheduler_TickIsolatesFailures(t *testing.T) {
	source := synthetic.NewAdapter()
	// availability has no data (ambiguous); latency succeeds
	source.SetValue("latency_query", 250)

	store := &fakeStore{}
	sched := NewScheduler(source, store, time.Minute, "", "")
	sched.SetDefinitionsForTest(twoDefinitions())

	now := time.Now()
	sched.tick(context.Background(), now)
	sched.wg.Wait()

	// The failed fetch stores a visible INDETERMINATE gap
	availRecords := store.savedFor("availability")
	if len(availRecords) != 1 {
		t.Fatalf("expected 1 availability record, got %d", len(availRecords))
	}
	if availRecords[0].Verdict != eval.VerdictIndeterminate {
		t.Errorf("expected INDETERMINATE for failed fetch, got %s", availRecords[0].Verdict)
	}
	if !math.IsNaN(availRecords[0].Value) {
		t.Errorf("expected NaN value, got %v", availRecords[0].Value)
	}

	// The sibling pipeline still ran to completion in the same tick
	latRecords := store.savedFor("latency_p99")
	if len(latRecords) != 1 {
		t.Fatalf("expected 1 latency record, got %d", len(latRecords))
	}
	if latRecords[0].Verdict != eval.VerdictViolated {
		t.Errorf("expected VIOLATED (250 > 200), got %s", latRecords[0].Verdict)
	}
	if latRecords[0].Value != 250 {
		t.Errorf("expected value 250, got %v", latRecords[0].Value)
	}
}

func TestScheduler_StoreErrorDoesNotBlockNextTick(t *testing.T) {
	source := synthetic.NewAdapter()
	source.SetValue("avail_query", 0.9995)
	source.SetValue("latency_query", 100)

	store := &fakeStore{}
	store.setFailure(&storage.StoreError{Kind: storage.StoreConnection, Err: errors.New("connection refused")})

	sched := NewScheduler(source, store, time.Minute, "", "")
	sched.SetDefinitionsForTest(twoDefinitions())

	base := time.Now()
	sched.tick(context.Background(), base)
	sched.wg.Wait()

	if len(store.saved()) != 0 {
		t.Fatalf("expected no records while store is failing, got %d", len(store.saved()))
	}

	// Store recovers; the next tick saves for all SLOs again
	store.setFailure(nil)
	sched.tick(context.Background(), base.Add(time.Minute))
	sched.wg.Wait()

	if len(store.saved()) != 2 {
		t.Fatalf("expected 2 records after recovery tick, got %d", len(store.saved()))
	}
}

func TestScheduler_SkipsInFlightSLO(t *testing.T) {
	source := &slowSource{release: make(chan struct{})}
	store := &fakeStore{}

	sched := NewScheduler(source, store, time.Minute, "", "")
	sched.SetDefinitionsForTest(twoDefinitions()[:1])

	base := time.Now()
	sched.tick(context.Background(), base)

	// The first pipeline is still blocked; the next tick must skip it
	// rather than stack a second fetch.
	sched.tick(context.Background(), base.Add(time.Minute))

	close(source.release)
	sched.wg.Wait()

	if got := len(store.savedFor("availability")); got != 1 {
		t.Fatalf("expected 1 record (second tick skipped), got %d", got)
	}
}

func TestScheduler_MonotonicEvaluatedAt(t *testing.T) {
	source := synthetic.NewAdapter()
	source.SetValue("avail_query", 0.9995)

	store := &fakeStore{}
	sched := NewScheduler(source, store, time.Minute, "", "")
	sched.SetDefinitionsForTest(twoDefinitions()[:1])

	base := time.Now()
	for i := 0; i < 3; i++ {
		sched.tick(context.Background(), base.Add(time.Duration(i)*time.Minute))
		sched.wg.Wait()
	}

	records := store.savedFor("availability")
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].EvaluatedAt.Before(records[i-1].EvaluatedAt) {
			t.Errorf("evaluated_at regressed: %v before %v", records[i].EvaluatedAt, records[i-1].EvaluatedAt)
		}
	}
}

func TestScheduler_EvaluateNow(t *testing.T) {
	source := synthetic.NewAdapter()
	source.SetValue("avail_query", 0.9995)

	store := &fakeStore{}
	sched := NewScheduler(source, store, time.Minute, "", "")
	sched.SetDefinitionsForTest(twoDefinitions())

	if err := sched.EvaluateNow(context.Background(), "nonexistent"); err == nil {
		t.Error("expected error for unknown SLO")
	}

	if err := sched.EvaluateNow(context.Background(), "availability"); err != nil {
		t.Fatalf("forced evaluation failed: %v", err)
	}

	record, ok := sched.Cache().Get("availability")
	if !ok {
		t.Fatal("expected cached record after forced evaluation")
	}
	if record.Verdict != eval.VerdictMet {
		t.Errorf("expected MET (0.9995 >= 0.999), got %s", record.Verdict)
	}

	if len(store.savedFor("availability")) != 1 {
		t.Error("expected forced evaluation to be persisted")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	source := synthetic.NewAdapter()
	source.SetValue("avail_query", 0.9995)
	source.SetValue("latency_query", 100)

	store := &fakeStore{}
	sched := NewScheduler(source, store, time.Hour, "", "")

	if err := sched.Start(); err == nil {
		t.Fatal("expected Start to fail with no definitions loaded")
	}

	sched.SetDefinitionsForTest(twoDefinitions())
	if err := sched.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if err := sched.Start(); err == nil {
		t.Error("expected error starting twice")
	}

	sched.Stop()

	// The immediate first tick evaluated every SLO before Stop returned
	if got := len(store.saved()); got != 2 {
		t.Errorf("expected 2 records from initial tick, got %d", got)
	}

	// Stop is idempotent
	sched.Stop()
}
