package adapter

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/spf13/cast"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/naming"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

// docToResource maps a stored document to a resource. fields restricts the
// attributes and relationships per API type.
func (a *Adapter) docToResource(doc docstore.Document, fields map[string][]string) (*resource.Resource, error) {
	model, ok := a.registry.Model(doc.ModelName())
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrUnknownModel, doc.ModelName())
	}
	schema := model.Schema()
	typ := naming.APIType(doc.ModelName())

	attrs := doc.ToMap(docstore.ToMapOptions{Virtuals: true})
	delete(attrs, docstore.IDKey)
	delete(attrs, docstore.IDAlias)
	delete(attrs, schema.VersionKey)
	delete(attrs, schema.DiscriminatorKey)

	allowed, restricted := fields[typ]
	keep := func(name string) bool {
		if !restricted {
			return true
		}
		for _, n := range allowed {
			if n == name {
				return true
			}
		}
		return false
	}

	rels := make(map[string]resource.Relationship)
	for _, f := range schema.ReferenceFields() {
		name := f.Path.String()
		raw, _ := docstore.GetPath(attrs, f.Path)
		docstore.DeletePath(attrs, f.Path)
		if !keep(name) {
			continue
		}
		rels[name] = resource.NewRelationship(linkageFor(f, raw))
	}

	if restricted {
		for name := range attrs {
			if !keep(name) {
				delete(attrs, name)
			}
		}
	}

	return resource.New(typ, doc.ID(), attrs, rels), nil
}

// linkageFor builds the linkage of a reference field. The shape follows the
// declaration, not the stored value.
func linkageFor(f *docstore.Field, raw interface{}) resource.Linkage {
	typ := naming.APIType(f.Ref)

	if !f.Array {
		return resource.ToOne(identifier(typ, raw))
	}

	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case nil:
	default:
		items = []interface{}{v}
	}

	ids := make([]*resource.Identifier, len(items))
	for i, item := range items {
		ids[i] = identifier(typ, item)
	}
	return resource.ToMany(ids)
}

// identifier accepts a bare id or a populated document.
func identifier(typ string, v interface{}) *resource.Identifier {
	if doc, ok := v.(map[string]interface{}); ok {
		v = doc[docstore.IDKey]
		if v == nil {
			v = doc[docstore.IDAlias]
		}
	}
	if v == nil {
		return nil
	}

	id := cast.ToString(v)
	if id == "" {
		return nil
	}
	return &resource.Identifier{Type: typ, ID: id}
}

// resourceToDocObject builds the store representation of r.
func resourceToDocObject(r *resource.Resource) (map[string]interface{}, error) {
	obj := make(map[string]interface{}, len(r.Attributes)+len(r.Relationships)+1)
	for k, v := range r.Attributes {
		obj[k] = copyValue(v)
	}

	for _, name := range sortedKeys(r.Relationships) {
		p, err := docstore.ParsePath(name)
		if err != nil {
			return nil, apierror.New(http.StatusBadRequest, "Invalid relationship name.").WithDetail(name)
		}

		linkage := r.Relationships[name].Linkage
		var value interface{}
		if linkage.IsToMany() {
			ids := make([]interface{}, 0, len(linkage.Many()))
			for _, id := range linkage.IDs() {
				ids = append(ids, id)
			}
			value = ids
		} else if one := linkage.One(); one != nil {
			value = one.ID
		}

		if err := docstore.SetPath(obj, p, value); err != nil {
			return nil, apierror.New(http.StatusBadRequest, "Invalid relationship name.").WithDetail(name)
		}
	}

	if r.ID != "" {
		obj[docstore.IDKey] = r.ID
	}
	return obj, nil
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
