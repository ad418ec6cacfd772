package engine

import "context"

// Record is one encoded document.
type Record struct {
	ID   string
	Data []byte
}

// Backend persists encoded documents grouped by collection. List must return
// records in insertion order, and Put must not change a record's position.
// Backends do not interpret document contents.
type Backend interface {
	List(ctx context.Context, collection string) ([]Record, error)
	// Get returns docstore.ErrNotFound when id does not exist.
	Get(ctx context.Context, collection, id string) (Record, error)
	// Insert adds records as one batch and returns docstore.ErrDuplicateKey
	// when an id already exists.
	Insert(ctx context.Context, collection string, records []Record) error
	// Put replaces an existing record.
	Put(ctx context.Context, collection string, record Record) error
	// Delete returns docstore.ErrNotFound when id does not exist.
	Delete(ctx context.Context, collection, id string) error
}
