package adapter

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/query"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

// create inserts one batch per resource type. Batches run concurrently and
// results keep the order in which each type first appears.
func (a *Adapter) create(ctx context.Context, q *query.Create) (*Result, error) {
	records := q.Records()
	if !records.IsMany() && records.Resource() == nil {
		return nil, apierror.New(http.StatusBadRequest, "You must provide a resource to create.")
	}

	var order []string
	groups := make(map[string][]*resource.Resource)
	for _, r := range records.Resources() {
		typ := r.Type
		if typ == "" {
			typ = q.Type()
		}
		if _, seen := groups[typ]; !seen {
			order = append(order, typ)
		}
		groups[typ] = append(groups[typ], r)
	}

	type batch struct {
		model   docstore.Model
		objects []map[string]interface{}
	}
	batches := make([]batch, len(order))
	for i, typ := range order {
		model, err := a.registry.ForType(typ)
		if err != nil {
			return nil, err
		}
		objects := make([]map[string]interface{}, 0, len(groups[typ]))
		for _, r := range groups[typ] {
			obj, err := resourceToDocObject(r)
			if err != nil {
				return nil, err
			}
			if a.newID != nil {
				obj[docstore.IDKey] = a.newID()
			}
			objects = append(objects, obj)
		}
		batches[i] = batch{model: model, objects: objects}
	}

	created := make([][]docstore.Document, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			docs, err := b.model.Create(gctx, b.objects)
			if err != nil {
				return err
			}
			created[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []docstore.Document
	for _, docs := range created {
		all = append(all, docs...)
	}
	mapped, err := a.mapDocuments(all, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: shape(mapped, records.IsMany())}, nil
}

// update applies each patch's explicitly set fields. Defaults and the
// discriminator are never part of the change set.
func (a *Adapter) update(ctx context.Context, q *query.Update) (*Result, error) {
	patches := q.Patches()
	if !patches.IsMany() && patches.Resource() == nil {
		return nil, apierror.New(http.StatusBadRequest, "You must provide a resource to update.")
	}

	opts := docstore.UpdateOptions{RunValidators: true, Upsert: false, New: true}
	updated := make([]docstore.Document, 0, len(patches.Resources()))

	for _, r := range patches.Resources() {
		typ := r.Type
		if typ == "" {
			typ = q.Type()
		}
		model, err := a.registry.ForType(typ)
		if err != nil {
			return nil, err
		}
		if !model.IsValidID(r.ID) {
			return nil, errNotFound().WithDetail(r.ID)
		}

		obj, err := resourceToDocObject(r)
		if err != nil {
			return nil, err
		}
		patch, err := model.New(obj)
		if err != nil {
			return nil, err
		}

		var set []docstore.Assignment
		for _, p := range patch.ModifiedPaths() {
			if len(p) == 1 && p[0] == model.Schema().DiscriminatorKey {
				continue
			}
			v, _ := patch.Get(p)
			set = append(set, docstore.Assignment{Path: p, Value: v})
		}

		doc, err := model.FindByIDAndUpdate(ctx, r.ID, docstore.Update{Set: set}, opts)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, errNotFound().WithDetail(r.ID)
		}
		updated = append(updated, doc)
	}

	mapped, err := a.mapDocuments(updated, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: shape(mapped, patches.IsMany())}, nil
}

// delete removes every matched document. Removal is not atomic across
// documents.
func (a *Adapter) delete(ctx context.Context, q *query.Delete) (*Result, error) {
	ids := q.IDs()
	if !ids.IsSet() || len(ids.IDs()) == 0 {
		return nil, apierror.New(http.StatusBadRequest, "You must specify some resources to delete.")
	}

	model, err := a.registry.ForType(q.Type())
	if err != nil {
		return nil, err
	}
	filter, single, err := idQuery(model, ids)
	if err != nil {
		return nil, err
	}

	docs, err := model.Find(filter).Exec(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errNotFound()
	}

	for _, doc := range docs {
		if err := model.Remove(ctx, doc); err != nil {
			return nil, err
		}
	}

	mapped, err := a.mapDocuments(docs, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: shape(mapped, !single)}, nil
}

func (a *Adapter) addToRelationship(ctx context.Context, q *query.AddToRelationship) (*Result, error) {
	return a.changeRelationship(ctx, q.Type(), q.ID(), q.Relationship(), func(p docstore.Path, ids []interface{}) docstore.Update {
		return docstore.Update{AddToSet: []docstore.ArrayChange{{Path: p, Values: ids}}}
	}, q.Linkage())
}

func (a *Adapter) removeFromRelationship(ctx context.Context, q *query.RemoveFromRelationship) (*Result, error) {
	return a.changeRelationship(ctx, q.Type(), q.ID(), q.Relationship(), func(p docstore.Path, ids []interface{}) docstore.Update {
		return docstore.Update{PullAll: []docstore.ArrayChange{{Path: p, Values: ids}}}
	}, q.Linkage())
}

// changeRelationship applies one atomic list update to a to-many
// relationship and returns the updated resource.
func (a *Adapter) changeRelationship(
	ctx context.Context,
	typ, id, name string,
	build func(docstore.Path, []interface{}) docstore.Update,
	linkage resource.Linkage,
) (*Result, error) {
	model, err := a.registry.ForType(typ)
	if err != nil {
		return nil, err
	}

	var field *docstore.Field
	for _, f := range model.Schema().ReferenceFields() {
		if f.Path.String() == name {
			field = f
			break
		}
	}
	if field == nil {
		return nil, apierror.New(http.StatusBadRequest, "Invalid relationship name.").WithDetail(name)
	}
	if !field.Array {
		return nil, apierror.New(http.StatusBadRequest, "Relationship is not to-many.").WithDetail(name)
	}
	if !model.IsValidID(id) {
		return nil, errNotFound().WithDetail(id)
	}

	linked := linkage.IDs()
	ids := make([]interface{}, len(linked))
	for i, linkedID := range linked {
		ids[i] = linkedID
	}

	opts := docstore.UpdateOptions{RunValidators: true, New: true}
	doc, err := model.FindOneAndUpdate(ctx, docstore.IDFilter(id), build(field.Path, ids), opts)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNotFound().WithDetail(id)
	}

	r, err := a.docToResource(doc, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Primary: resource.Single(r)}, nil
}
