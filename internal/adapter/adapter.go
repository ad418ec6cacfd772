// Package adapter translates the fixed set of JSON:API operations into
// document store calls and maps stored documents back into resources.
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/query"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

// Result is the outcome of one dispatched query.
type Result struct {
	Primary  resource.Data
	Included resource.Collection
	// Total is the unpaginated match count of a paginated collection find.
	Total *int
}

// Adapter executes queries against the models of a registry.
type Adapter struct {
	registry *Registry
	logger   *zap.Logger
	newID    func() string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for dispatched queries.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithIDGenerator assigns ids to created documents instead of leaving that
// to the store.
func WithIDGenerator(fn func() string) Option {
	return func(a *Adapter) {
		a.newID = fn
	}
}

// New creates an adapter over registry.
func New(registry *Registry, opts ...Option) *Adapter {
	a := &Adapter{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the adapter's model registry.
func (a *Adapter) Registry() *Registry {
	return a.registry
}

// DoQuery executes q. Expected failures are returned as *apierror.APIError.
// A query type the adapter does not know is a programming error and panics.
func (a *Adapter) DoQuery(ctx context.Context, q query.Query) (*Result, error) {
	start := time.Now()

	var (
		result *Result
		err    error
	)
	switch q := q.(type) {
	case *query.Find:
		result, err = a.find(ctx, q)
	case *query.Create:
		result, err = a.create(ctx, q)
	case *query.Update:
		result, err = a.update(ctx, q)
	case *query.Delete:
		result, err = a.delete(ctx, q)
	case *query.AddToRelationship:
		result, err = a.addToRelationship(ctx, q)
	case *query.RemoveFromRelationship:
		result, err = a.removeFromRelationship(ctx, q)
	default:
		panic(fmt.Sprintf("adapter: unsupported query type %T", q))
	}

	err = apierror.Normalize(err)

	fields := []zap.Field{
		zap.String("kind", q.Kind().String()),
		zap.String("type", q.Type()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		if apiErr, ok := apierror.As(err); ok {
			fields = append(fields, zap.Int("status", apiErr.Status))
		}
		a.logger.Debug("query failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	a.logger.Debug("query executed", fields...)
	return result, nil
}

// idQuery converts an id filter into a store filter. The boolean reports
// single-document mode.
func idQuery(model docstore.Model, ids query.IDFilter) (docstore.Filter, bool, error) {
	if !ids.IsSet() {
		return docstore.Filter{}, false, nil
	}

	if ids.IsSingle() {
		id := ids.ID()
		if !model.IsValidID(id) {
			return docstore.Filter{}, true, errNotFound()
		}
		return docstore.IDFilter(id), true, nil
	}

	list := ids.IDs()
	values := make([]interface{}, len(list))
	for i, id := range list {
		if !model.IsValidID(id) {
			return docstore.Filter{}, false, apierror.New(http.StatusBadRequest, "Invalid ID.").WithDetail(id)
		}
		values[i] = id
	}
	return docstore.Filter{}.In(docstore.Path{docstore.IDKey}, values...), false, nil
}

func errNotFound() *apierror.APIError {
	return apierror.New(http.StatusNotFound, "No matching resource found.")
}

func (a *Adapter) mapDocuments(docs []docstore.Document, fields map[string][]string) (resource.Collection, error) {
	out := make(resource.Collection, 0, len(docs))
	for _, doc := range docs {
		r, err := a.docToResource(doc, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// shape returns data as a single resource unless many.
func shape(c resource.Collection, many bool) resource.Data {
	if many {
		return resource.Many(c)
	}
	if len(c) == 0 {
		return resource.Single(nil)
	}
	return resource.Single(c[0])
}
