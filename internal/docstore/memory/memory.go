// Package memory is an in-process engine.Backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
)

type collection struct {
	order   []string
	records map[string][]byte
}

// Backend keeps collections in memory. It is safe for concurrent use.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ engine.Backend = (*Backend)(nil)

// New creates an empty backend.
func New() *Backend {
	return &Backend{collections: make(map[string]*collection)}
}

func (b *Backend) List(_ context.Context, name string) ([]engine.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.collections[name]
	if !ok {
		return nil, nil
	}
	out := make([]engine.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, engine.Record{ID: id, Data: clone(c.records[id])})
	}
	return out, nil
}

func (b *Backend) Get(_ context.Context, name, id string) (engine.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.collections[name]
	if !ok {
		return engine.Record{}, fmt.Errorf("%w: %s %s", docstore.ErrNotFound, name, id)
	}
	data, ok := c.records[id]
	if !ok {
		return engine.Record{}, fmt.Errorf("%w: %s %s", docstore.ErrNotFound, name, id)
	}
	return engine.Record{ID: id, Data: clone(data)}, nil
}

func (b *Backend) Insert(_ context.Context, name string, records []engine.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[name]
	if !ok {
		c = &collection{records: make(map[string][]byte)}
		b.collections[name] = c
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if _, exists := c.records[rec.ID]; exists || seen[rec.ID] {
			return fmt.Errorf("%w: %s %s", docstore.ErrDuplicateKey, name, rec.ID)
		}
		seen[rec.ID] = true
	}
	for _, rec := range records {
		c.records[rec.ID] = clone(rec.Data)
		c.order = append(c.order, rec.ID)
	}
	return nil
}

func (b *Backend) Put(_ context.Context, name string, rec engine.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s %s", docstore.ErrNotFound, name, rec.ID)
	}
	if _, exists := c.records[rec.ID]; !exists {
		return fmt.Errorf("%w: %s %s", docstore.ErrNotFound, name, rec.ID)
	}
	c.records[rec.ID] = clone(rec.Data)
	return nil
}

func (b *Backend) Delete(_ context.Context, name, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s %s", docstore.ErrNotFound, name, id)
	}
	if _, exists := c.records[id]; !exists {
		return fmt.Errorf("%w: %s %s", docstore.ErrNotFound, name, id)
	}
	delete(c.records, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func clone(data []byte) []byte {
	return append([]byte(nil), data...)
}
