// Package resource defines the normalized JSON:API representation exchanged
// with the adapter: resources, collections, relationships and linkage.
package resource

// Identifier is a resource identifier object: a (type, id) pair.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Resource is a single JSON:API resource. An empty ID marks a resource that
// has not been persisted yet.
type Resource struct {
	Type          string
	ID            string
	Attributes    map[string]interface{}
	Relationships map[string]Relationship
}

// New creates a Resource. The attribute and relationship maps are copied so
// the returned value does not share state with the caller.
func New(typ, id string, attributes map[string]interface{}, relationships map[string]Relationship) *Resource {
	attrs := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	rels := make(map[string]Relationship, len(relationships))
	for k, v := range relationships {
		rels[k] = v
	}

	return &Resource{
		Type:          typ,
		ID:            id,
		Attributes:    attrs,
		Relationships: rels,
	}
}

// Identifier returns the resource's (type, id) pair.
func (r *Resource) Identifier() Identifier {
	return Identifier{Type: r.Type, ID: r.ID}
}

// Collection is an ordered list of resources.
type Collection []*Resource

// IDs returns the ids of the collection's resources in order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i, r := range c {
		ids[i] = r.ID
	}
	return ids
}

// Data is either a single resource or a collection. Which one is fixed at
// construction and callers branch on IsMany rather than on the length of the
// contents.
type Data struct {
	many       bool
	single     *Resource
	collection Collection
}

// Single wraps one resource.
func Single(r *Resource) Data {
	return Data{single: r}
}

// Many wraps a collection. A nil collection is treated as empty.
func Many(c Collection) Data {
	if c == nil {
		c = Collection{}
	}
	return Data{many: true, collection: c}
}

// IsMany reports whether the data is a collection.
func (d Data) IsMany() bool {
	return d.many
}

// Resource returns the wrapped resource, or nil for a collection.
func (d Data) Resource() *Resource {
	return d.single
}

// Collection returns the wrapped collection, or nil for a single resource.
func (d Data) Collection() Collection {
	return d.collection
}

// Resources returns the contents as a slice regardless of cardinality.
func (d Data) Resources() []*Resource {
	if d.many {
		return d.collection
	}
	if d.single == nil {
		return nil
	}
	return []*Resource{d.single}
}

// IsEmpty reports whether the data holds no resource.
func (d Data) IsEmpty() bool {
	return len(d.Resources()) == 0
}
