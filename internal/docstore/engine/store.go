// Package engine is a document store that implements the docstore contract
// on top of a pluggable Backend. Query evaluation (filters, sorting,
// pagination, population and update operators) runs in process; backends
// only persist encoded documents.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/naming"
	"github.com/ChangJoo-Park/json-api/internal/util/graph"
)

// Store owns the model definitions and the backend they share.
type Store struct {
	backend     Backend
	logger      *zap.Logger
	newID       func() string
	validID     func(string) bool
	now         func() time.Time
	collections func(modelName string) string

	mu     sync.RWMutex
	models map[string]*Model
	order  []string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store operations.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the UUID generator for documents created without
// an id. validate must accept every id the generator produces.
func WithIDGenerator(generate func() string, validate func(string) bool) Option {
	return func(s *Store) {
		s.newID = generate
		s.validID = validate
	}
}

// WithClock sets the time source used by dynamic date defaults registered
// through Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCollectionNames overrides how model names map to collections.
func WithCollectionNames(fn func(modelName string) string) Option {
	return func(s *Store) {
		s.collections = fn
	}
}

// New creates a store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		logger:      zap.NewNop(),
		newID:       uuid.NewString,
		validID:     IsUUID,
		now:         time.Now,
		collections: naming.CollectionName,
		models:      make(map[string]*Model),
		locks:       make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsUUID reports whether id is a canonical UUID string.
func IsUUID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// Now returns a dynamic default that yields the store clock's current time.
func (s *Store) Now() func() interface{} {
	return func() interface{} {
		return s.now().UTC()
	}
}

// Define registers a root model stored in its own collection.
func (s *Store) Define(name string, schema *docstore.Schema) (*Model, error) {
	if schema == nil {
		schema = docstore.NewSchema()
	}
	if err := checkSchema(name, schema); err != nil {
		return nil, err
	}

	m := &Model{
		store:      s,
		name:       name,
		collection: s.collections(name),
		schema:     withReservedKeys(schema),
	}
	if err := s.register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// DefineDiscriminator registers name as a subtype of parent. The subtype
// shares the parent's collection and inherits its fields.
func (s *Store) DefineDiscriminator(parent, name string, schema *docstore.Schema) (*Model, error) {
	base, ok := s.lookup(parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrUnknownModel, parent)
	}
	if schema == nil {
		schema = &docstore.Schema{}
	}
	if err := checkSchema(name, schema); err != nil {
		return nil, err
	}

	m := &Model{
		store:      s,
		name:       name,
		collection: base.collection,
		schema:     base.schema.Extend(schema),
		parent:     base,
	}
	if err := s.register(m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	base.children = append(base.children, m)
	s.mu.Unlock()
	return m, nil
}

// Model returns the model registered as name.
func (s *Store) Model(name string) (*Model, error) {
	m, ok := s.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns every model with each parent ahead of its subtypes.
func (s *Store) Models() []*Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make(map[string][]string)
	roots := make([]string, 0, len(s.order))
	for _, name := range s.order {
		m := s.models[name]
		if m.parent == nil {
			roots = append(roots, name)
			continue
		}
		edges[m.parent.name] = append(edges[m.parent.name], name)
	}

	sorted := graph.PseudoTopSort(s.order, edges, roots)
	models := make([]*Model, len(sorted))
	for i, name := range sorted {
		models[i] = s.models[name]
	}
	return models
}

func (s *Store) register(m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[m.name]; exists {
		return fmt.Errorf("model %s is already defined", m.name)
	}
	s.models[m.name] = m
	s.order = append(s.order, m.name)
	return nil
}

func (s *Store) lookup(name string) (*Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[name]
	return m, ok
}

// lock serializes read-modify-write operations on one collection.
func (s *Store) lock(collection string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

func checkSchema(name string, schema *docstore.Schema) error {
	if name == "" {
		return fmt.Errorf("model name is required")
	}
	seen := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		if len(f.Path) == 0 {
			return fmt.Errorf("model %s: %w: empty field path", name, docstore.ErrInvalidPath)
		}
		key := f.Path.String()
		if key == docstore.IDKey || key == docstore.IDAlias {
			return fmt.Errorf("model %s: field %s is reserved", name, key)
		}
		if seen[key] {
			return fmt.Errorf("model %s: duplicate field %s", name, key)
		}
		if f.IsReference() && f.Type != docstore.TypeObjectID {
			return fmt.Errorf("model %s: reference field %s must be an ObjectId", name, key)
		}
		seen[key] = true
	}
	return nil
}

func withReservedKeys(schema *docstore.Schema) *docstore.Schema {
	out := *schema
	if out.VersionKey == "" {
		out.VersionKey = docstore.DefaultVersionKey
	}
	if out.DiscriminatorKey == "" {
		out.DiscriminatorKey = docstore.DefaultDiscriminatorKey
	}
	return &out
}
