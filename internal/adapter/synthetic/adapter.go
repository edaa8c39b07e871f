package synthetic

import (
	"context"
	"sync"
	"time"

	"slochecker/internal/eval"
)

// Adapter is a programmable eval.MetricsSource for tests and local
// development: each query maps to a fixed value or a fixed error.
type Adapter struct {
	mu     sync.RWMutex
	values map[string]float64
	errs   map[string]error
}

// NewAdapter creates a new synthetic adapter
func NewAdapter() *Adapter {
	return &Adapter{
		values: make(map[string]float64),
		errs:   make(map[string]error),
	}
}

// SetValue fixes the value returned for a query.
func (a *Adapter) SetValue(query string, value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[query] = value
	delete(a.errs, query)
}

// SetError fixes the error returned for a query.
func (a *Adapter) SetError(query string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[query] = err
	delete(a.values, query)
}

// FetchInstant implements eval.MetricsSource. Unknown queries behave
// like a backend with no data for the series: ambiguous, not zero.
func (a *Adapter) FetchInstant(_ context.Context, query string, _ time.Time) (float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err, ok := a.errs[query]; ok {
		return 0, err
	}
	if value, ok := a.values[query]; ok {
		return value, nil
	}
	return 0, &eval.FetchError{Kind: eval.FetchAmbiguous, Query: query}
}
