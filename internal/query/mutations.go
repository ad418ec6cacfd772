package query

import "github.com/ChangJoo-Park/json-api/internal/resource"

// Create inserts new resources.
type Create struct {
	typ     string
	records resource.Data
}

// NewCreate creates a Create query for records of typ (or its subtypes).
func NewCreate(typ string, records resource.Data) *Create {
	return &Create{typ: typ, records: copyData(records)}
}

func (q *Create) Kind() Kind   { return KindCreate }
func (q *Create) Type() string { return q.typ }
func (q *Create) sealed()      {}

// Records returns the resources to create.
func (q *Create) Records() resource.Data { return copyData(q.records) }

// Update applies partial patches to existing resources.
type Update struct {
	typ     string
	patches resource.Data
}

// NewUpdate creates an Update query. Each patch carries the id of the
// resource to change and only the attributes/relationships to set.
func NewUpdate(typ string, patches resource.Data) *Update {
	return &Update{typ: typ, patches: copyData(patches)}
}

func (q *Update) Kind() Kind   { return KindUpdate }
func (q *Update) Type() string { return q.typ }
func (q *Update) sealed()      {}

// Patches returns the resource patches.
func (q *Update) Patches() resource.Data { return copyData(q.patches) }

// Delete removes resources by id.
type Delete struct {
	typ string
	ids IDFilter
}

// NewDelete creates a Delete query.
func NewDelete(typ string, ids IDFilter) *Delete {
	return &Delete{typ: typ, ids: ids}
}

func (q *Delete) Kind() Kind   { return KindDelete }
func (q *Delete) Type() string { return q.typ }
func (q *Delete) sealed()      {}

// IDs returns the ids to delete.
func (q *Delete) IDs() IDFilter { return q.ids }

// RelationshipParams identifies a relationship and the linkage to apply.
type RelationshipParams struct {
	Type         string
	ID           string
	Relationship string
	Linkage      resource.Linkage
}

// AddToRelationship appends linkage to a to-many relationship.
type AddToRelationship struct {
	params RelationshipParams
}

// NewAddToRelationship creates an AddToRelationship query.
func NewAddToRelationship(params RelationshipParams) *AddToRelationship {
	return &AddToRelationship{params: params}
}

func (q *AddToRelationship) Kind() Kind   { return KindAddToRelationship }
func (q *AddToRelationship) Type() string { return q.params.Type }
func (q *AddToRelationship) sealed()      {}

// ID returns the id of the resource that owns the relationship.
func (q *AddToRelationship) ID() string { return q.params.ID }

// Relationship returns the relationship path name.
func (q *AddToRelationship) Relationship() string { return q.params.Relationship }

// Linkage returns the linkage to add.
func (q *AddToRelationship) Linkage() resource.Linkage { return q.params.Linkage }

// RemoveFromRelationship removes linkage from a to-many relationship.
type RemoveFromRelationship struct {
	params RelationshipParams
}

// NewRemoveFromRelationship creates a RemoveFromRelationship query.
func NewRemoveFromRelationship(params RelationshipParams) *RemoveFromRelationship {
	return &RemoveFromRelationship{params: params}
}

func (q *RemoveFromRelationship) Kind() Kind   { return KindRemoveFromRelationship }
func (q *RemoveFromRelationship) Type() string { return q.params.Type }
func (q *RemoveFromRelationship) sealed()      {}

// ID returns the id of the resource that owns the relationship.
func (q *RemoveFromRelationship) ID() string { return q.params.ID }

// Relationship returns the relationship path name.
func (q *RemoveFromRelationship) Relationship() string { return q.params.Relationship }

// Linkage returns the linkage to remove.
func (q *RemoveFromRelationship) Linkage() resource.Linkage { return q.params.Linkage }
