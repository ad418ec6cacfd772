package docstore

import "context"

// SortField orders query results by one path.
type SortField struct {
	Path       Path
	Descending bool
}

// Condition matches documents whose value at Path equals one of Values. A
// non-In condition has exactly one value.
type Condition struct {
	Path   Path
	Values []interface{}
	In     bool
}

// Filter is a conjunction of conditions. The zero value matches everything.
type Filter struct {
	Conditions []Condition
}

// Eq returns f extended with path == value.
func (f Filter) Eq(path Path, value interface{}) Filter {
	return f.with(Condition{Path: path, Values: []interface{}{value}})
}

// In returns f extended with path ∈ values.
func (f Filter) In(path Path, values ...interface{}) Filter {
	return f.with(Condition{Path: path, Values: append([]interface{}{}, values...), In: true})
}

// And returns the conjunction of f and other.
func (f Filter) And(other Filter) Filter {
	out := Filter{Conditions: make([]Condition, 0, len(f.Conditions)+len(other.Conditions))}
	out.Conditions = append(out.Conditions, f.Conditions...)
	out.Conditions = append(out.Conditions, other.Conditions...)
	return out
}

func (f Filter) with(c Condition) Filter {
	out := Filter{Conditions: make([]Condition, 0, len(f.Conditions)+1)}
	out.Conditions = append(out.Conditions, f.Conditions...)
	out.Conditions = append(out.Conditions, c)
	return out
}

// IDFilter matches one document by primary key.
func IDFilter(id string) Filter {
	return Filter{}.Eq(Path{IDKey}, id)
}

// Assignment sets Path to Value.
type Assignment struct {
	Path  Path
	Value interface{}
}

// ArrayChange adds or removes Values on the list at Path.
type ArrayChange struct {
	Path   Path
	Values []interface{}
}

// Update is an atomic change to one document.
type Update struct {
	Set      []Assignment
	AddToSet []ArrayChange // append values not already present
	PullAll  []ArrayChange // remove every occurrence of the values
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return len(u.Set) == 0 && len(u.AddToSet) == 0 && len(u.PullAll) == 0
}

// UpdateOptions controls FindByIDAndUpdate and FindOneAndUpdate.
type UpdateOptions struct {
	RunValidators bool // validate the changed paths
	Upsert        bool // insert when nothing matches
	New           bool // return the document after the update
}

// ToMapOptions controls Document.ToMap.
type ToMapOptions struct {
	Virtuals bool // include virtual fields and the "id" alias
}

// Document is one stored record.
type Document interface {
	// ModelName returns the concrete model of the document, honoring the
	// discriminator.
	ModelName() string
	// ID returns the primary key.
	ID() string
	// Get returns the value at p.
	Get(p Path) (interface{}, bool)
	// ModifiedPaths returns the paths explicitly assigned since
	// construction, in assignment order. Defaults are not included.
	ModifiedPaths() []Path
	// ToMap returns the serialized form. Populated references appear as
	// nested serialized documents, unpopulated ones as id strings.
	ToMap(opts ToMapOptions) map[string]interface{}
	// Populated returns the documents loaded for p by Query.Populate, and
	// false when p was not populated.
	Populated(p Path) ([]Document, bool)
}

// Query is a lazily executed read.
type Query interface {
	Where(path Path, value interface{}) Query
	Sort(fields ...SortField) Query
	Skip(n int) Query
	Limit(n int) Query
	Populate(paths ...Path) Query
	Exec(ctx context.Context) ([]Document, error)
}

// Model gives access to the documents of one model.
type Model interface {
	// Name returns the model name.
	Name() string
	// Schema returns the model's schema descriptor, including inherited
	// fields for discriminator models.
	Schema() *Schema
	// BaseModel returns the parent model name of a discriminator model, or
	// "" for a root model.
	BaseModel() string
	// ChildModels returns the direct discriminator children.
	ChildModels() []string
	// IsValidID reports whether id has the store's primary-key format.
	IsValidID(id string) bool

	Find(filter Filter) Query
	// FindOne returns a query whose Exec yields at most one document.
	FindOne(filter Filter) Query
	Count(ctx context.Context, filter Filter) (int, error)
	// Create inserts all docs as one batch and returns them in input order.
	Create(ctx context.Context, docs []map[string]interface{}) ([]Document, error)
	// New builds an unsaved document through the model's setters and
	// defaults.
	New(values map[string]interface{}) (Document, error)
	// FindByIDAndUpdate returns nil and no error when nothing matches.
	FindByIDAndUpdate(ctx context.Context, id string, update Update, opts UpdateOptions) (Document, error)
	// FindOneAndUpdate returns nil and no error when nothing matches.
	FindOneAndUpdate(ctx context.Context, filter Filter, update Update, opts UpdateOptions) (Document, error)
	Remove(ctx context.Context, doc Document) error
}
