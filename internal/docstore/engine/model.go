package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

// Model is a registered model. Discriminator models share their root's
// collection and carry the root's fields.
type Model struct {
	store      *Store
	name       string
	collection string
	schema     *docstore.Schema
	parent     *Model
	children   []*Model
}

var _ docstore.Model = (*Model)(nil)

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Collection returns the backend collection the model is stored in.
func (m *Model) Collection() string { return m.collection }

// Schema returns the model's schema, including inherited fields.
func (m *Model) Schema() *docstore.Schema { return m.schema }

// BaseModel returns the parent model name, or "" for a root model.
func (m *Model) BaseModel() string {
	if m.parent == nil {
		return ""
	}
	return m.parent.name
}

// ChildModels returns the direct discriminator children in definition
// order.
func (m *Model) ChildModels() []string {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	names := make([]string, len(m.children))
	for i, c := range m.children {
		names[i] = c.name
	}
	return names
}

// IsValidID reports whether id has the store's primary-key format.
func (m *Model) IsValidID(id string) bool {
	return m.store.validID(id)
}

func (m *Model) root() *Model {
	r := m
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// isA reports whether m is other or one of its descendants.
func (m *Model) isA(other *Model) bool {
	for c := m; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

func (m *Model) logger() *zap.Logger {
	return m.store.logger.With(zap.String("model", m.name))
}

// Find returns a query over documents of m and its subtypes.
func (m *Model) Find(filter docstore.Filter) docstore.Query {
	return &query{model: m, filter: filter}
}

// FindOne returns a query that yields at most one document.
func (m *Model) FindOne(filter docstore.Filter) docstore.Query {
	return &query{model: m, filter: filter, one: true}
}

// Count returns the number of documents matching filter.
func (m *Model) Count(ctx context.Context, filter docstore.Filter) (int, error) {
	docs, err := (&query{model: m, filter: filter}).run(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// New builds an unsaved document.
func (m *Model) New(values map[string]interface{}) (docstore.Document, error) {
	d, err := m.newDocument(values)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create validates and inserts docs as one batch. Nothing is written when
// any document fails.
func (m *Model) Create(ctx context.Context, inputs []map[string]interface{}) ([]docstore.Document, error) {
	unlock := m.store.lock(m.collection)
	defer unlock()

	docs := make([]*document, 0, len(inputs))
	for _, in := range inputs {
		d, err := m.newDocument(in)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	if err := m.insert(ctx, docs); err != nil {
		return nil, err
	}

	m.logger().Debug("created documents", zap.Int("count", len(docs)))

	out := make([]docstore.Document, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out, nil
}

// insert assigns ids, validates and writes docs. The collection lock must be
// held.
func (m *Model) insert(ctx context.Context, docs []*document) error {
	seen := make(map[string]bool, len(docs))
	records := make([]Record, 0, len(docs))

	for _, d := range docs {
		id := d.ID()
		if id == "" {
			id = m.store.newID()
			d.values[docstore.IDKey] = id
		} else if !m.store.validID(id) {
			ve := &docstore.ValidationError{Model: d.model.name}
			ve.Add(docstore.IDKey, "cast", fmt.Sprintf("Cast to ObjectId failed for value %q at path %q", id, docstore.IDKey), id)
			return ve
		}

		if ve := d.validate(nil); ve != nil {
			return ve
		}

		if seen[id] {
			return fmt.Errorf("%w: %s %s", docstore.ErrDuplicateKey, m.collection, id)
		}
		seen[id] = true

		_, err := m.store.backend.Get(ctx, m.collection, id)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s %s", docstore.ErrDuplicateKey, m.collection, id)
		case !errors.Is(err, docstore.ErrNotFound):
			return err
		}

		rec, err := encode(d)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	return m.store.backend.Insert(ctx, m.collection, records)
}

// FindByIDAndUpdate applies update to the document with the given id.
func (m *Model) FindByIDAndUpdate(ctx context.Context, id string, update docstore.Update, opts docstore.UpdateOptions) (docstore.Document, error) {
	return m.FindOneAndUpdate(ctx, docstore.IDFilter(id), update, opts)
}

// FindOneAndUpdate applies update to the first document matching filter.
func (m *Model) FindOneAndUpdate(ctx context.Context, filter docstore.Filter, update docstore.Update, opts docstore.UpdateOptions) (docstore.Document, error) {
	unlock := m.store.lock(m.collection)
	defer unlock()

	found, err := (&query{model: m, filter: filter, one: true}).run(ctx)
	if err != nil {
		return nil, err
	}

	if len(found) == 0 {
		if !opts.Upsert {
			return nil, nil
		}
		return m.upsert(ctx, filter, update)
	}

	d := found[0]
	before := d.clone()

	changed, err := d.apply(update)
	if err != nil {
		return nil, err
	}
	if opts.RunValidators && len(changed) > 0 {
		if ve := d.validate(changed); ve != nil {
			return nil, ve
		}
	}

	if len(changed) > 0 {
		vk := d.model.schema.VersionKey
		d.values[vk] = toVersion(d.values[vk]) + 1

		rec, err := encode(d)
		if err != nil {
			return nil, err
		}
		if err := m.store.backend.Put(ctx, m.collection, rec); err != nil {
			return nil, err
		}
		m.logger().Debug("updated document",
			zap.String("id", d.ID()),
			zap.Int("paths", len(changed)),
		)
	}

	if opts.New {
		return d, nil
	}
	return before, nil
}

func (m *Model) upsert(ctx context.Context, filter docstore.Filter, update docstore.Update) (docstore.Document, error) {
	seed := make(map[string]interface{})
	for _, c := range filter.Conditions {
		if c.In || len(c.Values) != 1 {
			continue
		}
		p := c.Path
		if len(p) == 1 && p[0] == docstore.IDAlias {
			p = docstore.Path{docstore.IDKey}
		}
		if err := docstore.SetPath(seed, p, c.Values[0]); err != nil {
			return nil, err
		}
	}

	d, err := m.newDocument(seed)
	if err != nil {
		return nil, err
	}
	if _, err := d.apply(update); err != nil {
		return nil, err
	}
	if err := m.insert(ctx, []*document{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// Remove deletes doc.
func (m *Model) Remove(ctx context.Context, doc docstore.Document) error {
	unlock := m.store.lock(m.collection)
	defer unlock()

	if err := m.store.backend.Delete(ctx, m.collection, doc.ID()); err != nil {
		return err
	}
	m.logger().Debug("removed document", zap.String("id", doc.ID()))
	return nil
}
