package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"slochecker/internal/eval"
	"slochecker/internal/slo"
	"slochecker/internal/storage"
	"slochecker/internal/telemetry"
)

// Scheduler drives the poll-evaluate-persist loop. A single ticker at a
// fixed interval fans out one pipeline per configured SLO each tick;
// pipelines fail independently, and a failure in one SLO never aborts
// the others or the process.
type Scheduler struct {
	source       eval.MetricsSource
	store        storage.ResultStore
	cache        *VerdictCache
	interval     time.Duration
	sloDirectory string
	schemaPath   string
	defs         []slo.DefinitionWithFile

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool

	// inflight tracks SLOs whose pipeline from a previous tick has not
	// finished; a new tick skips them instead of piling up requests
	// against a slow backend.
	inflightMu sync.Mutex
	inflight   map[string]bool
}

// NewScheduler creates a new scheduler
func NewScheduler(source eval.MetricsSource, store storage.ResultStore, interval time.Duration, sloDirectory, schemaPath string) *Scheduler {
	return &Scheduler{
		source:       source,
		store:        store,
		cache:        NewVerdictCache(),
		interval:     interval,
		sloDirectory: sloDirectory,
		schemaPath:   schemaPath,
		inflight:     make(map[string]bool),
	}
}

// LoadDefinitions loads and validates SLO definitions from the
// configured directory. Definitions are immutable for the run.
func (s *Scheduler) LoadDefinitions() error {
	defs, errs := slo.LoadFromDirectory(s.sloDirectory)
	if len(errs) > 0 {
		return fmt.Errorf("failed to load SLO definitions: %d errors, first: %v", len(errs), errs[0])
	}

	if len(defs) == 0 {
		return fmt.Errorf("no SLO definitions found in %s", s.sloDirectory)
	}

	validator, err := slo.NewValidator(s.schemaPath)
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}

	validationErrors := validator.ValidateDirectory(s.sloDirectory)
	if len(validationErrors) > 0 {
		return fmt.Errorf("SLO validation failed: %d errors, first: %v", len(validationErrors), validationErrors[0])
	}

	s.mu.Lock()
	s.defs = defs
	s.mu.Unlock()

	log.Printf("Loaded %d SLO definitions", len(defs))
	return nil
}

// Start begins the tick loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	if len(s.defs) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no SLO definitions loaded, call LoadDefinitions() first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	log.Printf("Started scheduler: interval=%s, slos=%d", s.interval, len(s.Definitions()))
	return nil
}

// Stop stops the scheduler and waits for in-flight pipelines to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.cancel()
	s.running = false
	s.mu.Unlock()

	log.Println("Stopping scheduler...")
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// run drives ticks until the context is cancelled. The first tick fires
// immediately so history starts at process start, not one interval in.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.tick(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick fans out one pipeline per SLO. It does not wait for the
// pipelines: a slow backend must never delay the next tick for the
// healthy SLOs, and per-SLO backlog is prevented by the inflight map.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	var tickWG sync.WaitGroup

	for _, dwf := range s.Definitions() {
		def := dwf.Definition

		if !s.begin(def.Name) {
			log.Printf("Skipping SLO %s: previous evaluation still in flight", def.Name)
			telemetry.SkippedTotal.WithLabelValues(def.Name).Inc()
			continue
		}

		s.wg.Add(1)
		tickWG.Add(1)
		go func(def *slo.Definition) {
			defer s.wg.Done()
			defer tickWG.Done()
			defer s.end(def.Name)
			s.evaluateOnce(ctx, def, now)
		}(def)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tickWG.Wait()
		telemetry.TickDuration.Observe(time.Since(now).Seconds())
	}()
}

// evaluateOnce runs one SLO's fetch -> evaluate -> store pipeline.
// A fetch failure stores an INDETERMINATE record so the gap is visible
// in history; a store failure is logged and the record dropped, since
// there is no durable retry queue.
func (s *Scheduler) evaluateOnce(ctx context.Context, def *slo.Definition, now time.Time) {
	var record eval.Record

	value, err := s.source.FetchInstant(ctx, def.Query, now)
	if err != nil {
		log.Printf("Error fetching SLO %s: %v", def.Name, err)
		telemetry.FetchErrorsTotal.WithLabelValues(def.Name, fetchKind(err)).Inc()
		record = eval.Indeterminate(def.Name, now)
	} else {
		record = eval.Evaluate(def, eval.MetricSample{
			SLOName:   def.Name,
			Value:     value,
			FetchedAt: now,
		})
	}

	s.cache.Set(record)
	telemetry.EvaluationsTotal.WithLabelValues(def.Name, string(record.Verdict)).Inc()

	if err := s.store.Save(ctx, record); err != nil {
		log.Printf("Warning: failed to store evaluation for SLO %s: %v", def.Name, err)
		telemetry.StoreErrorsTotal.WithLabelValues(storeKind(err)).Inc()
		return
	}

	log.Printf("Evaluated SLO %s: verdict=%s, value=%v", def.Name, record.Verdict, record.Value)
}

// begin marks an SLO's pipeline as in flight; false means one is
// already running and this tick must skip it.
func (s *Scheduler) begin(name string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if s.inflight[name] {
		return false
	}
	s.inflight[name] = true
	return true
}

func (s *Scheduler) end(name string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	delete(s.inflight, name)
}

// EvaluateNow forces an immediate evaluation of a specific SLO, outside
// the tick cycle. It waits for the pipeline to finish.
func (s *Scheduler) EvaluateNow(ctx context.Context, name string) error {
	var target *slo.Definition
	for _, dwf := range s.Definitions() {
		if dwf.Definition.Name == name {
			target = dwf.Definition
			break
		}
	}

	if target == nil {
		return fmt.Errorf("SLO not found: %s", name)
	}

	if !s.begin(name) {
		return fmt.Errorf("SLO %s: evaluation already in flight", name)
	}
	defer s.end(name)

	s.evaluateOnce(ctx, target, time.Now())
	return nil
}

// Cache returns the latest-verdict cache
func (s *Scheduler) Cache() *VerdictCache {
	return s.cache
}

// Store returns the result store
func (s *Scheduler) Store() storage.ResultStore {
	return s.store
}

// Definitions returns a copy of the loaded SLO definitions
func (s *Scheduler) Definitions() []slo.DefinitionWithFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]slo.DefinitionWithFile, len(s.defs))
	copy(result, s.defs)
	return result
}

// SetDefinitionsForTest sets definitions directly (for testing only)
func (s *Scheduler) SetDefinitionsForTest(defs []slo.DefinitionWithFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = defs
}

func fetchKind(err error) string {
	var fe *eval.FetchError
	if errors.As(err, &fe) {
		return string(fe.Kind)
	}
	return "unknown"
}

func storeKind(err error) string {
	var se *storage.StoreError
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	return "unknown"
}
