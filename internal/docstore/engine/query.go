package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

type query struct {
	model    *Model
	filter   docstore.Filter
	sort     []docstore.SortField
	skip     int
	limit    int
	populate []docstore.Path
	one      bool
}

var _ docstore.Query = (*query)(nil)

func (q *query) Where(path docstore.Path, value interface{}) docstore.Query {
	q.filter = q.filter.Eq(path, value)
	return q
}

func (q *query) Sort(fields ...docstore.SortField) docstore.Query {
	q.sort = append(q.sort, fields...)
	return q
}

func (q *query) Skip(n int) docstore.Query {
	q.skip = n
	return q
}

// Limit bounds the result size. Zero means no limit.
func (q *query) Limit(n int) docstore.Query {
	q.limit = n
	return q
}

func (q *query) Populate(paths ...docstore.Path) docstore.Query {
	q.populate = append(q.populate, paths...)
	return q
}

func (q *query) Exec(ctx context.Context) ([]docstore.Document, error) {
	docs, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]docstore.Document, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out, nil
}

func (q *query) run(ctx context.Context) ([]*document, error) {
	m := q.model
	conds, err := m.compile(q.filter)
	if err != nil {
		return nil, err
	}

	records, err := m.scan(ctx, conds)
	if err != nil {
		return nil, err
	}

	docs := make([]*document, 0, len(records))
	for _, rec := range records {
		d, err := m.decode(rec)
		if err != nil {
			return nil, err
		}
		if !d.model.isA(m) || !d.matches(conds) {
			continue
		}
		docs = append(docs, d)
	}

	if len(q.sort) > 0 {
		sortDocuments(docs, q.sort)
	}

	if q.skip > 0 {
		if q.skip >= len(docs) {
			docs = docs[:0]
		} else {
			docs = docs[q.skip:]
		}
	}
	limit := q.limit
	if q.one {
		limit = 1
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	for _, p := range q.populate {
		if err := m.populate(ctx, docs, p); err != nil {
			return nil, err
		}
	}

	m.store.logger.Debug("executed query",
		zap.String("model", m.name),
		zap.Int("conditions", len(conds)),
		zap.Int("results", len(docs)),
	)
	return docs, nil
}

// scan loads the candidate records. A lone id equality is answered with a
// point lookup.
func (m *Model) scan(ctx context.Context, conds []docstore.Condition) ([]Record, error) {
	if len(conds) == 1 && !conds[0].In && len(conds[0].Values) == 1 &&
		len(conds[0].Path) == 1 && conds[0].Path[0] == docstore.IDKey {
		id, ok := conds[0].Values[0].(string)
		if ok {
			rec, err := m.store.backend.Get(ctx, m.collection, id)
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return []Record{rec}, nil
		}
	}
	return m.store.backend.List(ctx, m.collection)
}

// compile normalizes the id alias and casts condition values to the declared
// field types.
func (m *Model) compile(filter docstore.Filter) ([]docstore.Condition, error) {
	conds := make([]docstore.Condition, len(filter.Conditions))
	for i, c := range filter.Conditions {
		p := c.Path
		if len(p) == 1 && p[0] == docstore.IDAlias {
			p = docstore.Path{docstore.IDKey}
		}

		t := docstore.TypeMixed
		if len(p) == 1 && p[0] == docstore.IDKey {
			t = docstore.TypeObjectID
		} else if f, ok := m.schema.Field(p); ok {
			t = f.Type
		}

		values := make([]interface{}, len(c.Values))
		for j, v := range c.Values {
			cv, err := coerceScalar(t, v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", docstore.ErrCast, p, err)
			}
			values[j] = cv
		}
		conds[i] = docstore.Condition{Path: p, Values: values, In: c.In}
	}
	return conds, nil
}

// matches reports whether every condition holds. A list value matches when
// any element does.
func (d *document) matches(conds []docstore.Condition) bool {
	for _, c := range conds {
		v, ok := docstore.GetPath(d.values, c.Path)
		candidates := []interface{}{v}
		if ok && v != nil {
			if list, err := toList(v); err == nil {
				candidates = list
			}
		}

		hit := false
		for _, candidate := range candidates {
			if contains(c.Values, candidate) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func sortDocuments(docs []*document, fields []docstore.SortField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			a, _ := docs[i].Get(f.Path)
			b, _ := docs[j].Get(f.Path)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if f.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// populate loads the documents referenced at p. Missing targets are
// skipped, the rest keep the order of the stored ids.
func (m *Model) populate(ctx context.Context, docs []*document, p docstore.Path) error {
	if len(docs) == 0 {
		return nil
	}
	f, ok := m.schema.Field(p)
	if !ok || !f.IsReference() {
		return fmt.Errorf("%w: %s is not a reference", docstore.ErrInvalidPath, p)
	}
	target, ok := m.store.lookup(f.Ref)
	if !ok {
		return fmt.Errorf("%w: %s", docstore.ErrUnknownModel, f.Ref)
	}

	seen := make(map[string]bool)
	var ids []interface{}
	for _, d := range docs {
		for _, id := range referencedIDs(d, f) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[string]*document, len(ids))
	if len(ids) > 0 {
		found, err := (&query{model: target, filter: docstore.Filter{}.In(docstore.Path{docstore.IDKey}, ids...)}).run(ctx)
		if err != nil {
			return err
		}
		for _, doc := range found {
			byID[doc.ID()] = doc
		}
	}

	key := p.String()
	for _, d := range docs {
		loaded := make([]*document, 0)
		for _, id := range referencedIDs(d, f) {
			if doc, ok := byID[id]; ok {
				loaded = append(loaded, doc)
			}
		}
		if d.populated == nil {
			d.populated = make(map[string][]*document)
		}
		d.populated[key] = loaded
	}
	return nil
}

func referencedIDs(d *document, f *docstore.Field) []string {
	v, ok := docstore.GetPath(d.values, f.Path)
	if !ok || v == nil {
		return nil
	}
	if !f.Array {
		if id, ok := v.(string); ok {
			return []string{id}
		}
		return nil
	}

	items, err := toList(v)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
