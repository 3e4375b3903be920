package engine

import (
	"sync"

	"github.com/MohaMazouz/latewatch/internal/model"
)

// datasetCache memoizes cleaned+classified datasets keyed by the content
// hash of the raw input table. The key includes the evaluation date, since
// classification depends on it.
type datasetCache struct {
	entries map[string][]model.Invoice
	mu      sync.RWMutex
}

func newDatasetCache() *datasetCache {
	return &datasetCache{entries: make(map[string][]model.Invoice)}
}

// get returns a copy of the cached dataset, if present. Callers own the
// returned slice and may mutate it freely.
func (c *datasetCache) get(key string) ([]model.Invoice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append([]model.Invoice(nil), cached...), true
}

func (c *datasetCache) set(key string, invoices []model.Invoice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = append([]model.Invoice(nil), invoices...)
}
