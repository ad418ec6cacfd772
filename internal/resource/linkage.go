package resource

// Linkage is the resource linkage of a relationship. A to-one linkage holds a
// single identifier or nil; a to-many linkage holds an ordered list whose
// entries may be nil.
type Linkage struct {
	toMany bool
	one    *Identifier
	many   []*Identifier
}

// ToOne builds a to-one linkage. A nil identifier represents an empty
// relationship.
func ToOne(id *Identifier) Linkage {
	return Linkage{one: id}
}

// ToMany builds a to-many linkage. A nil slice is normalized to an empty list.
func ToMany(ids []*Identifier) Linkage {
	list := make([]*Identifier, len(ids))
	copy(list, ids)
	return Linkage{toMany: true, many: list}
}

// IsToMany reports whether the linkage is a list.
func (l Linkage) IsToMany() bool {
	return l.toMany
}

// One returns the to-one identifier (nil for empty or to-many linkage).
func (l Linkage) One() *Identifier {
	return l.one
}

// Many returns a copy of the to-many identifiers.
func (l Linkage) Many() []*Identifier {
	if !l.toMany {
		return nil
	}
	list := make([]*Identifier, len(l.many))
	copy(list, l.many)
	return list
}

// Identifiers returns the non-nil identifiers in order for either shape.
func (l Linkage) Identifiers() []Identifier {
	if !l.toMany {
		if l.one == nil {
			return []Identifier{}
		}
		return []Identifier{*l.one}
	}

	result := make([]Identifier, 0, len(l.many))
	for _, id := range l.many {
		if id != nil {
			result = append(result, *id)
		}
	}
	return result
}

// IDs returns the ids of Identifiers.
func (l Linkage) IDs() []string {
	identifiers := l.Identifiers()
	ids := make([]string, len(identifiers))
	for i, id := range identifiers {
		ids[i] = id.ID
	}
	return ids
}

// Relationship is a named association on a resource.
type Relationship struct {
	Linkage Linkage
}

// NewRelationship wraps linkage in a Relationship.
func NewRelationship(linkage Linkage) Relationship {
	return Relationship{Linkage: linkage}
}
