// Package query defines the fixed set of operations the adapter executes.
// Every query is immutable once constructed; accessors return copies.
package query

import "github.com/ChangJoo-Park/json-api/internal/resource"

// Kind tags the operation a query represents.
type Kind int

const (
	// KindFind reads resources
	KindFind Kind = iota
	// KindCreate inserts resources
	KindCreate
	// KindUpdate patches resources
	KindUpdate
	// KindDelete removes resources
	KindDelete
	// KindAddToRelationship appends linkage to a to-many relationship
	KindAddToRelationship
	// KindRemoveFromRelationship removes linkage from a to-many relationship
	KindRemoveFromRelationship
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFind:
		return "find"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindAddToRelationship:
		return "add_to_relationship"
	case KindRemoveFromRelationship:
		return "remove_from_relationship"
	default:
		return "unknown"
	}
}

// Query is implemented only by the operation types in this package.
type Query interface {
	// Kind returns the operation tag
	Kind() Kind
	// Type returns the API type the query targets
	Type() string

	sealed()
}

// IDFilter restricts an operation to one id, a list of ids, or nothing. The
// zero value applies no restriction.
type IDFilter struct {
	set    bool
	single bool
	ids    []string
}

// ByID restricts to exactly one id.
func ByID(id string) IDFilter {
	return IDFilter{set: true, single: true, ids: []string{id}}
}

// ByIDs restricts to a list of ids. An empty list matches nothing.
func ByIDs(ids ...string) IDFilter {
	list := make([]string, len(ids))
	copy(list, ids)
	return IDFilter{set: true, ids: list}
}

// IsSet reports whether any id restriction applies.
func (f IDFilter) IsSet() bool {
	return f.set
}

// IsSingle reports whether the filter names exactly one id with ByID.
func (f IDFilter) IsSingle() bool {
	return f.single
}

// ID returns the id of a single filter.
func (f IDFilter) ID() string {
	if !f.single {
		return ""
	}
	return f.ids[0]
}

// IDs returns a copy of the filter's ids.
func (f IDFilter) IDs() []string {
	list := make([]string, len(f.ids))
	copy(list, f.ids)
	return list
}

// SortField is one (field, direction) pair of a sort specification.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortField parses the JSON:API form where a leading "-" means
// descending.
func ParseSortField(s string) SortField {
	if len(s) > 0 && s[0] == '-' {
		return SortField{Field: s[1:], Descending: true}
	}
	return SortField{Field: s}
}

// String returns the JSON:API form of the sort field.
func (s SortField) String() string {
	if s.Descending {
		return "-" + s.Field
	}
	return s.Field
}

func copyData(d resource.Data) resource.Data {
	if d.IsMany() {
		c := make(resource.Collection, len(d.Collection()))
		copy(c, d.Collection())
		return resource.Many(c)
	}
	return resource.Single(d.Resource())
}
