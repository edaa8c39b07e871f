package scheduler

import (
	"sync"

	"slochecker/internal/eval"
)

// VerdictCache is a thread-safe cache of the most recent evaluation
// record per SLO, serving the status API without a database read.
type VerdictCache struct {
	mu      sync.RWMutex
	records map[string]eval.Record
}

// NewVerdictCache creates a new verdict cache
func NewVerdictCache() *VerdictCache {
	return &VerdictCache{
		records: make(map[string]eval.Record),
	}
}

// Get retrieves the cached record for an SLO
func (c *VerdictCache) Get(sloName string) (eval.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, exists := c.records[sloName]
	return record, exists
}

// Set stores the latest record for an SLO
func (c *VerdictCache) Set(record eval.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[record.SLOName] = record
}

// GetAll returns a copy of all cached records
func (c *VerdictCache) GetAll() map[string]eval.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]eval.Record, len(c.records))
	for k, v := range c.records {
		snapshot[k] = v
	}

	return snapshot
}

// Size returns the number of cached records
func (c *VerdictCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records)
}
