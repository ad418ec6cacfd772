package engine

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

type document struct {
	model     *Model
	values    map[string]interface{}
	modified  []docstore.Path
	populated map[string][]*document
}

var _ docstore.Document = (*document)(nil)

// newDocument builds a document of m from caller values. Undeclared keys are
// dropped. Defaults are applied without marking their paths modified.
func (m *Model) newDocument(in map[string]interface{}) (*document, error) {
	d := &document{model: m, values: make(map[string]interface{})}

	if id, ok := in[docstore.IDKey]; ok && id != nil {
		d.values[docstore.IDKey] = cast.ToString(id)
	} else if id, ok := in[docstore.IDAlias]; ok && id != nil {
		d.values[docstore.IDKey] = cast.ToString(id)
	}

	ve := &docstore.ValidationError{Model: m.name}
	for _, f := range m.schema.Fields {
		v, ok := docstore.GetPath(in, f.Path)
		if !ok {
			if err := d.applyDefault(f); err != nil {
				ve.Add(f.Path.String(), "cast", err.Error(), nil)
			}
			continue
		}

		c, err := coerce(f, v)
		if err != nil {
			ve.Add(f.Path.String(), "cast", err.Error(), v)
			continue
		}
		if err := docstore.SetPath(d.values, f.Path, c); err != nil {
			return nil, err
		}
		d.modified = append(d.modified, f.Path)
	}
	if ve.HasErrors() {
		return nil, ve
	}

	d.values[m.schema.VersionKey] = 0
	if m.parent != nil {
		d.values[m.schema.DiscriminatorKey] = m.name
	}
	return d, nil
}

func (d *document) applyDefault(f *docstore.Field) error {
	var v interface{}
	switch {
	case f.DefaultFunc != nil:
		v = f.DefaultFunc()
	case f.Default != nil:
		v = deepCopy(f.Default)
	case f.Array:
		return docstore.SetPath(d.values, f.Path, []interface{}{})
	default:
		return nil
	}

	c, err := coerce(f, v)
	if err != nil {
		return err
	}
	return docstore.SetPath(d.values, f.Path, c)
}

// ModelName returns the concrete model name.
func (d *document) ModelName() string { return d.model.name }

// ID returns the primary key.
func (d *document) ID() string {
	id, _ := d.values[docstore.IDKey].(string)
	return id
}

// Get returns the value at p. "id" aliases the primary key.
func (d *document) Get(p docstore.Path) (interface{}, bool) {
	if len(p) == 1 && p[0] == docstore.IDAlias {
		p = docstore.Path{docstore.IDKey}
	}
	return docstore.GetPath(d.values, p)
}

// ModifiedPaths returns the explicitly assigned paths.
func (d *document) ModifiedPaths() []docstore.Path {
	out := make([]docstore.Path, len(d.modified))
	copy(out, d.modified)
	return out
}

// Populated returns the documents loaded for p.
func (d *document) Populated(p docstore.Path) ([]docstore.Document, bool) {
	docs, ok := d.populated[p.String()]
	if !ok {
		return nil, false
	}
	out := make([]docstore.Document, len(docs))
	for i, doc := range docs {
		out[i] = doc
	}
	return out, true
}

// ToMap returns a deep copy of the stored values with populated references
// expanded.
func (d *document) ToMap(opts docstore.ToMapOptions) map[string]interface{} {
	out, _ := deepCopy(d.values).(map[string]interface{})

	for key, docs := range d.populated {
		p := docstore.Path(splitKey(key))
		f, ok := d.model.schema.Field(p)
		if !ok {
			continue
		}

		if f.Array {
			list := make([]interface{}, len(docs))
			for i, doc := range docs {
				list[i] = doc.ToMap(opts)
			}
			_ = docstore.SetPath(out, p, list)
			continue
		}
		if len(docs) == 0 {
			_ = docstore.SetPath(out, p, nil)
			continue
		}
		_ = docstore.SetPath(out, p, docs[0].ToMap(opts))
	}

	if opts.Virtuals {
		out[docstore.IDAlias] = d.ID()
		for _, v := range d.model.schema.Virtuals {
			out[v.Name] = v.Get(d.values)
		}
	}
	return out
}

func (d *document) clone() *document {
	values, _ := deepCopy(d.values).(map[string]interface{})
	return &document{
		model:     d.model,
		values:    values,
		modified:  d.ModifiedPaths(),
		populated: d.populated,
	}
}

// apply performs update in place and returns the paths it changed. Paths
// the schema does not declare are ignored.
func (d *document) apply(update docstore.Update) ([]docstore.Path, error) {
	schema := d.model.schema
	ve := &docstore.ValidationError{Model: d.model.name}
	var changed []docstore.Path

	for _, a := range update.Set {
		f, ok := schema.Field(a.Path)
		if !ok {
			continue
		}
		c, err := coerce(f, a.Value)
		if err != nil {
			ve.Add(f.Path.String(), "cast", err.Error(), a.Value)
			continue
		}
		if err := docstore.SetPath(d.values, f.Path, c); err != nil {
			return nil, err
		}
		changed = append(changed, f.Path)
	}

	for _, change := range update.AddToSet {
		f, err := arrayField(schema, change.Path)
		if err != nil {
			return nil, err
		}
		list := d.list(f)
		for _, v := range change.Values {
			c, err := coerceElement(f, v)
			if err != nil {
				ve.Add(f.Path.String(), "cast", err.Error(), v)
				continue
			}
			if !contains(list, c) {
				list = append(list, c)
			}
		}
		if err := docstore.SetPath(d.values, f.Path, list); err != nil {
			return nil, err
		}
		changed = append(changed, f.Path)
	}

	for _, change := range update.PullAll {
		f, err := arrayField(schema, change.Path)
		if err != nil {
			return nil, err
		}
		remove := make([]interface{}, 0, len(change.Values))
		for _, v := range change.Values {
			c, err := coerceElement(f, v)
			if err != nil {
				ve.Add(f.Path.String(), "cast", err.Error(), v)
				continue
			}
			remove = append(remove, c)
		}
		kept := make([]interface{}, 0)
		for _, item := range d.list(f) {
			if !contains(remove, item) {
				kept = append(kept, item)
			}
		}
		if err := docstore.SetPath(d.values, f.Path, kept); err != nil {
			return nil, err
		}
		changed = append(changed, f.Path)
	}

	if ve.HasErrors() {
		return nil, ve
	}
	return changed, nil
}

func (d *document) list(f *docstore.Field) []interface{} {
	v, _ := docstore.GetPath(d.values, f.Path)
	items, err := toList(v)
	if err != nil || v == nil {
		return []interface{}{}
	}
	return append([]interface{}{}, items...)
}

func arrayField(schema *docstore.Schema, p docstore.Path) (*docstore.Field, error) {
	f, ok := schema.Field(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not declared", docstore.ErrInvalidPath, p)
	}
	if !f.Array {
		return nil, fmt.Errorf("%w: %s is not a list", docstore.ErrInvalidPath, p)
	}
	return f, nil
}

// validate runs the field validators. When paths is non-nil only fields at
// those paths are checked.
func (d *document) validate(paths []docstore.Path) *docstore.ValidationError {
	ve := &docstore.ValidationError{Model: d.model.name}

	for _, f := range d.model.schema.Fields {
		if paths != nil && !containsPath(paths, f.Path) {
			continue
		}

		name := f.Path.String()
		v, _ := docstore.GetPath(d.values, f.Path)
		if v == nil || v == "" {
			if f.Required {
				ve.Add(name, "required", fmt.Sprintf("Path `%s` is required.", name), v)
			}
			continue
		}

		values := []interface{}{v}
		if f.Array {
			values, _ = toList(v)
		}
		for _, item := range values {
			validateValue(ve, d.model.store, f, item)
		}
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateValue(ve *docstore.ValidationError, s *Store, f *docstore.Field, v interface{}) {
	name := f.Path.String()

	switch val := v.(type) {
	case string:
		if len(f.Enum) > 0 && !containsString(f.Enum, val) {
			ve.Add(name, "enum", fmt.Sprintf("`%s` is not a valid enum value for path `%s`.", val, name), v)
		}
		if f.MaxLength != nil && utf8.RuneCountInString(val) > *f.MaxLength {
			ve.Add(name, "maxlength", fmt.Sprintf("Path `%s` (`%s`) is longer than the maximum allowed length (%d).", name, val, *f.MaxLength), v)
		}
		if f.Type == docstore.TypeObjectID && !s.validID(val) {
			ve.Add(name, "cast", fmt.Sprintf("Cast to ObjectId failed for value %q at path %q", val, name), v)
		}
	case float64:
		if f.Max != nil && val > *f.Max {
			ve.Add(name, "max", fmt.Sprintf("Path `%s` (%v) is more than maximum allowed value (%v).", name, val, *f.Max), v)
		}
	}
}

func containsPath(paths []docstore.Path, p docstore.Path) bool {
	for _, candidate := range paths {
		if candidate.Equal(p) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func contains(list []interface{}, v interface{}) bool {
	for _, item := range list {
		if valuesEqual(item, v) {
			return true
		}
	}
	return false
}

func deepCopy(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return append([]string{}, val...)
	case time.Time:
		return val
	default:
		return v
	}
}

func splitKey(key string) []string {
	p, err := docstore.ParsePath(key)
	if err != nil {
		return []string{key}
	}
	return p
}
