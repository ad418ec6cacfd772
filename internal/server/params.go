package server

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/query"
)

// fieldsPattern matches query parameters like fields[typename]
var fieldsPattern = regexp.MustCompile(`^fields\[([^\]]+)\]$`)

// filterPattern matches query parameters like filter[key]
var filterPattern = regexp.MustCompile(`^filter\[([^\]]+)\]$`)

// Pagination query parameter names
const (
	pageOffsetParam = "page[offset]"
	pageLimitParam  = "page[limit]"
)

// ParseInclude parses the include query parameter into a slice of relationship names.
// Example: ?include=author,comments returns ["author", "comments"]
func ParseInclude(r *http.Request) []string {
	return splitList(r.URL.Query().Get("include"))
}

// ParseFields parses the fields query parameters into a map of resource types to field names.
// Example: ?fields[people]=name,email returns {"people": ["name", "email"]}
// An empty value selects no fields for that type.
func ParseFields(r *http.Request) map[string][]string {
	result := make(map[string][]string)

	for key, values := range r.URL.Query() {
		matches := fieldsPattern.FindStringSubmatch(key)
		if len(matches) != 2 {
			continue
		}
		if len(values) == 0 {
			result[matches[1]] = []string{}
			continue
		}
		result[matches[1]] = splitList(values[0])
	}

	return result
}

// ParseFilter parses the filter query parameters into a map of filter keys to values.
// Example: ?filter[name]=Ada returns {"name": "Ada"}
func ParseFilter(r *http.Request) map[string]string {
	result := make(map[string]string)

	for key, values := range r.URL.Query() {
		matches := filterPattern.FindStringSubmatch(key)
		if len(matches) != 2 {
			continue
		}
		if len(values) > 0 {
			result[matches[1]] = values[0]
		}
	}

	return result
}

// ParseSort parses the sort query parameter. A "-" prefix means descending.
// Example: ?sort=-created,name
func ParseSort(r *http.Request) []query.SortField {
	parts := splitList(r.URL.Query().Get("sort"))
	result := make([]query.SortField, 0, len(parts))
	for _, part := range parts {
		result = append(result, query.ParseSortField(part))
	}
	return result
}

// ParsePage parses page[offset] and page[limit]. Absent parameters are nil.
// A positive maxLimit caps the limit.
func ParsePage(r *http.Request, maxLimit int) (offset, limit *int, err error) {
	q := r.URL.Query()

	if raw := q.Get(pageOffsetParam); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return nil, nil, errInvalidPage(pageOffsetParam, raw)
		}
		offset = &n
	}

	if raw := q.Get(pageLimitParam); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			return nil, nil, errInvalidPage(pageLimitParam, raw)
		}
		if maxLimit > 0 && n > maxLimit {
			n = maxLimit
		}
		limit = &n
	}

	return offset, limit, nil
}

// ParseFind builds the parameters of a find on typ from the request.
func ParseFind(r *http.Request, typ string, maxLimit int) (query.FindParams, error) {
	offset, limit, err := ParsePage(r, maxLimit)
	if err != nil {
		return query.FindParams{}, err
	}
	return query.FindParams{
		Type:    typ,
		Fields:  ParseFields(r),
		Sort:    ParseSort(r),
		Filters: ParseFilter(r),
		Include: ParseInclude(r),
		Offset:  offset,
		Limit:   limit,
	}, nil
}

func errInvalidPage(param, value string) *apierror.APIError {
	return apierror.New(http.StatusBadRequest, "Invalid page parameter.").
		WithDetail(param + "=" + value)
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
