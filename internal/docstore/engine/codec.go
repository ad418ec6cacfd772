package engine

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

// encode serializes a document's stored values. Times are written in
// RFC 3339 form and restored by the schema on decode.
func encode(d *document) (Record, error) {
	data, err := json.Marshal(d.values)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode %s %s: %w", d.model.name, d.ID(), err)
	}
	return Record{ID: d.ID(), Data: data}, nil
}

// decode restores a stored document. The concrete model is taken from the
// discriminator key when it names model or one of its descendants.
func (m *Model) decode(rec Record) (*document, error) {
	raw := make(map[string]interface{})
	if err := json.Unmarshal(rec.Data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", m.name, rec.ID, err)
	}

	concrete := m.root()
	if t, ok := raw[m.schema.DiscriminatorKey].(string); ok {
		if child, ok := m.store.lookup(t); ok && child.root() == m.root() {
			concrete = child
		}
	}

	values := map[string]interface{}{docstore.IDKey: rec.ID}
	if v, ok := raw[concrete.schema.VersionKey]; ok {
		values[concrete.schema.VersionKey] = toVersion(v)
	}
	if concrete.parent != nil {
		values[concrete.schema.DiscriminatorKey] = concrete.name
	}

	for _, f := range concrete.schema.Fields {
		v, ok := docstore.GetPath(raw, f.Path)
		if !ok {
			if f.Array {
				_ = docstore.SetPath(values, f.Path, []interface{}{})
			}
			continue
		}
		coerced, err := coerce(f, v)
		if err != nil {
			// Stored data that no longer fits the schema is surfaced
			// unchanged rather than dropped.
			coerced = v
		}
		if err := docstore.SetPath(values, f.Path, coerced); err != nil {
			return nil, err
		}
	}

	return &document{model: concrete, values: values}, nil
}
