package adapter

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/query"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

func (a *Adapter) find(ctx context.Context, q *query.Find) (*Result, error) {
	model, err := a.registry.ForType(q.Type())
	if err != nil {
		return nil, err
	}

	filter, single, err := idQuery(model, q.IDs())
	if err != nil {
		return nil, err
	}

	filter, err = equalityFilter(model, filter, q.Filters())
	if err != nil {
		return nil, err
	}

	sort, err := sortFields(model, q.Sort())
	if err != nil {
		return nil, err
	}

	includes, err := includePaths(model, q.Include())
	if err != nil {
		return nil, err
	}

	var dq docstore.Query
	if single {
		dq = model.FindOne(filter)
	} else {
		dq = model.Find(filter)
	}
	if len(sort) > 0 {
		dq = dq.Sort(sort...)
	}
	if offset := q.Offset(); offset != nil {
		dq = dq.Skip(*offset)
	}
	if limit := q.Limit(); limit != nil {
		dq = dq.Limit(*limit)
	}
	if len(includes) > 0 {
		dq = dq.Populate(includes...)
	}

	var (
		docs  []docstore.Document
		total *int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = dq.Exec(gctx)
		return err
	})
	if q.IsPaginated() && !single {
		g.Go(func() error {
			n, err := model.Count(gctx, filter)
			if err != nil {
				return err
			}
			total = &n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if single && len(docs) == 0 {
		return nil, errNotFound()
	}

	fields := q.Fields()
	primary, err := a.mapDocuments(docs, fields)
	if err != nil {
		return nil, err
	}

	var included resource.Collection
	for _, doc := range docs {
		for _, p := range includes {
			populated, ok := doc.Populated(p)
			if !ok {
				continue
			}
			mapped, err := a.mapDocuments(populated, fields)
			if err != nil {
				return nil, err
			}
			included = append(included, mapped...)
		}
	}

	return &Result{
		Primary:  shape(primary, !single),
		Included: included,
		Total:    total,
	}, nil
}

func equalityFilter(model docstore.Model, filter docstore.Filter, filters map[string]string) (docstore.Filter, error) {
	for _, key := range sortedKeys(filters) {
		p, err := docstore.ParsePath(key)
		if err != nil || !model.Schema().HasPath(p) {
			return filter, apierror.New(http.StatusBadRequest, "Invalid filter field.").WithDetail(key)
		}
		filter = filter.Eq(p, filters[key])
	}
	return filter, nil
}

func sortFields(model docstore.Model, fields []query.SortField) ([]docstore.SortField, error) {
	out := make([]docstore.SortField, 0, len(fields))
	for _, f := range fields {
		p, err := docstore.ParsePath(f.Field)
		if err != nil || !model.Schema().HasPath(p) {
			return nil, apierror.New(http.StatusBadRequest, "Invalid sort field.").WithDetail(f.Field)
		}
		out = append(out, docstore.SortField{Path: p, Descending: f.Descending})
	}
	return out, nil
}

// includePaths resolves include names to reference paths.
func includePaths(model docstore.Model, include []string) ([]docstore.Path, error) {
	refs := model.Schema().ReferenceFields()

	out := make([]docstore.Path, 0, len(include))
	for _, name := range include {
		var found docstore.Path
		for _, f := range refs {
			if f.Path.String() == name {
				found = f.Path
				break
			}
		}

		switch {
		case found != nil:
			out = append(out, found)
		case strings.Contains(name, "."):
			return nil, apierror.New(http.StatusNotImplemented, "Multi-level include paths aren't yet supported.").WithDetail(name)
		default:
			return nil, apierror.New(http.StatusBadRequest, "Invalid include path.").WithDetail(name)
		}
	}
	return out, nil
}
