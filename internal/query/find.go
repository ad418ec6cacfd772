package query

// FindParams holds the inputs of a Find query.
type FindParams struct {
	Type    string
	IDs     IDFilter
	Fields  map[string][]string // API type -> allowed attribute/relationship names
	Sort    []SortField
	Filters map[string]string // field -> required value
	Include []string
	Offset  *int
	Limit   *int
}

// Find reads resources of one type.
type Find struct {
	params FindParams
}

// NewFind creates a Find query from params. Maps and slices are copied.
func NewFind(params FindParams) *Find {
	p := FindParams{
		Type:    params.Type,
		IDs:     params.IDs,
		Fields:  copyFields(params.Fields),
		Sort:    append([]SortField(nil), params.Sort...),
		Filters: make(map[string]string, len(params.Filters)),
		Include: append([]string(nil), params.Include...),
		Offset:  copyInt(params.Offset),
		Limit:   copyInt(params.Limit),
	}
	for k, v := range params.Filters {
		p.Filters[k] = v
	}
	return &Find{params: p}
}

func (q *Find) Kind() Kind   { return KindFind }
func (q *Find) Type() string { return q.params.Type }
func (q *Find) sealed()      {}

// IDs returns the id restriction.
func (q *Find) IDs() IDFilter { return q.params.IDs }

// Fields returns the field selection, keyed by API type.
func (q *Find) Fields() map[string][]string { return copyFields(q.params.Fields) }

// Sort returns the sort specification.
func (q *Find) Sort() []SortField { return append([]SortField(nil), q.params.Sort...) }

// Filters returns the equality filters.
func (q *Find) Filters() map[string]string {
	filters := make(map[string]string, len(q.params.Filters))
	for k, v := range q.params.Filters {
		filters[k] = v
	}
	return filters
}

// Include returns the relationship paths to include.
func (q *Find) Include() []string { return append([]string(nil), q.params.Include...) }

// Offset returns the number of results to skip, or nil.
func (q *Find) Offset() *int { return copyInt(q.params.Offset) }

// Limit returns the maximum number of results, or nil.
func (q *Find) Limit() *int { return copyInt(q.params.Limit) }

// IsPaginated reports whether an offset or limit is present.
func (q *Find) IsPaginated() bool {
	return q.params.Offset != nil || q.params.Limit != nil
}

func copyFields(fields map[string][]string) map[string][]string {
	if fields == nil {
		return nil
	}
	result := make(map[string][]string, len(fields))
	for typ, names := range fields {
		result[typ] = append([]string{}, names...)
	}
	return result
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
