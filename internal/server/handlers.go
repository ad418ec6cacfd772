package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ChangJoo-Park/json-api/internal/adapter"
	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/query"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

// TypeDocumentation is the body of GET /docs/{type}.
type TypeDocumentation struct {
	Type          string                       `json:"type"`
	Fields        []adapter.FieldDocumentation `json:"fields"`
	AllowedTypes  []string                     `json:"allowedTypes"`
	Relationships []string                     `json:"relationships"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")

	params, err := ParseFind(r, typ, s.config.MaxPageSize)
	if err != nil {
		s.renderError(w, err)
		return
	}

	result, err := s.adapter.DoQuery(r.Context(), query.NewFind(params))
	if err != nil {
		s.renderError(w, err)
		return
	}

	doc := s.findDocument(result)
	doc.Links = &Links{Self: r.URL.RequestURI()}
	if result.Total != nil {
		doc.Meta = map[string]interface{}{"total": *result.Total}
		if params.Limit != nil {
			offset := 0
			if params.Offset != nil {
				offset = *params.Offset
			}
			doc.Links = paginationLinks(r.URL, offset, *params.Limit, *result.Total)
		}
	}
	s.renderDocument(w, http.StatusOK, doc)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	typ, id := chi.URLParam(r, "type"), chi.URLParam(r, "id")

	params, err := ParseFind(r, typ, s.config.MaxPageSize)
	if err != nil {
		s.renderError(w, err)
		return
	}
	params.IDs = query.ByID(id)
	params.Offset, params.Limit = nil, nil

	result, err := s.adapter.DoQuery(r.Context(), query.NewFind(params))
	if err != nil {
		s.renderError(w, err)
		return
	}

	doc := s.findDocument(result)
	doc.Links = &Links{Self: r.URL.RequestURI()}
	s.renderDocument(w, http.StatusOK, doc)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")

	data, err := s.readData(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	if err := s.checkTypes(typ, data.Resources()); err != nil {
		s.renderError(w, err)
		return
	}

	result, err := s.adapter.DoQuery(r.Context(), query.NewCreate(typ, data))
	if err != nil {
		s.renderError(w, err)
		return
	}

	if created := result.Primary.Resource(); created != nil {
		w.Header().Set("Location", s.config.BasePath+"/"+created.Type+"/"+created.ID)
	}
	s.renderDocument(w, http.StatusCreated, &Document{Data: EncodeData(result.Primary, s.config.BasePath)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	typ, id := chi.URLParam(r, "type"), chi.URLParam(r, "id")

	data, err := s.readData(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	if data.IsMany() {
		s.renderError(w, errInvalidDocument("data must be a single resource"))
		return
	}
	if patch := data.Resource(); patch != nil {
		if patch.ID != "" && patch.ID != id {
			s.renderError(w, apierror.New(http.StatusConflict, "Resource id does not match endpoint.").WithDetail(patch.ID))
			return
		}
		patch.ID = id
	}
	if err := s.checkTypes(typ, data.Resources()); err != nil {
		s.renderError(w, err)
		return
	}

	s.update(w, r, typ, data)
}

func (s *Server) handleUpdateMany(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")

	data, err := s.readData(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	if !data.IsMany() {
		s.renderError(w, errInvalidDocument("data must be a list of resources"))
		return
	}
	for _, patch := range data.Collection() {
		if patch.ID == "" {
			s.renderError(w, errInvalidDocument("every resource must have an id"))
			return
		}
	}
	if err := s.checkTypes(typ, data.Resources()); err != nil {
		s.renderError(w, err)
		return
	}

	s.update(w, r, typ, data)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, typ string, data resource.Data) {
	result, err := s.adapter.DoQuery(r.Context(), query.NewUpdate(typ, data))
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderDocument(w, http.StatusOK, &Document{Data: EncodeData(result.Primary, s.config.BasePath)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	typ, id := chi.URLParam(r, "type"), chi.URLParam(r, "id")

	if _, err := s.adapter.DoQuery(r.Context(), query.NewDelete(typ, query.ByID(id))); err != nil {
		s.renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMany(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")

	body, err := s.readBody(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	identifiers, err := DecodeIdentifiers(body)
	if err != nil {
		s.renderError(w, err)
		return
	}

	// No body leaves the filter unset; the adapter refuses that.
	var ids query.IDFilter
	if identifiers != nil {
		list := make([]string, len(identifiers))
		for i, identifier := range identifiers {
			list[i] = identifier.ID
		}
		ids = query.ByIDs(list...)
	}

	if _, err := s.adapter.DoQuery(r.Context(), query.NewDelete(typ, ids)); err != nil {
		s.renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddToRelationship(w http.ResponseWriter, r *http.Request) {
	s.changeRelationship(w, r, func(p query.RelationshipParams) query.Query {
		return query.NewAddToRelationship(p)
	})
}

func (s *Server) handleRemoveFromRelationship(w http.ResponseWriter, r *http.Request) {
	s.changeRelationship(w, r, func(p query.RelationshipParams) query.Query {
		return query.NewRemoveFromRelationship(p)
	})
}

func (s *Server) changeRelationship(w http.ResponseWriter, r *http.Request, build func(query.RelationshipParams) query.Query) {
	params := query.RelationshipParams{
		Type:         chi.URLParam(r, "type"),
		ID:           chi.URLParam(r, "id"),
		Relationship: chi.URLParam(r, "rel"),
	}

	body, err := s.readBody(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	linkage, err := DecodeLinkage(body)
	if err != nil {
		s.renderError(w, err)
		return
	}
	if !linkage.IsToMany() {
		s.renderError(w, errInvalidDocument("data must be a list of resource identifiers"))
		return
	}
	params.Linkage = linkage

	result, err := s.adapter.DoQuery(r.Context(), build(params))
	if err != nil {
		s.renderError(w, err)
		return
	}

	var data interface{} = []resource.Identifier{}
	if updated := result.Primary.Resource(); updated != nil {
		if rel, ok := updated.Relationships[params.Relationship]; ok {
			data = EncodeLinkage(rel.Linkage)
		}
	}
	s.renderDocument(w, http.StatusOK, &Document{
		Data:  data,
		Links: &Links{Self: r.URL.RequestURI()},
	})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")

	fields, err := s.adapter.GetStandardizedSchema(typ)
	if err != nil {
		s.renderError(w, err)
		return
	}
	allowed, err := s.adapter.GetTypesAllowedInCollection(typ)
	if err != nil {
		s.renderError(w, err)
		return
	}
	relationships, err := s.adapter.GetRelationshipNames(typ)
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.render(w, http.StatusOK, "application/json", TypeDocumentation{
		Type:          typ,
		Fields:        fields,
		AllowedTypes:  allowed,
		Relationships: relationships,
	})
}

func (s *Server) findDocument(result *adapter.Result) *Document {
	doc := &Document{Data: EncodeData(result.Primary, s.config.BasePath)}
	if len(result.Included) > 0 {
		doc.Included = EncodeCollection(result.Included, s.config.BasePath)
	}
	return doc
}

// checkTypes fills in missing resource types with typ and rejects types
// that cannot be stored in typ's collection.
func (s *Server) checkTypes(typ string, resources []*resource.Resource) error {
	allowed, err := s.adapter.GetTypesAllowedInCollection(typ)
	if err != nil {
		return err
	}

	for _, res := range resources {
		if res.Type == "" {
			res.Type = typ
			continue
		}
		if !containsString(allowed, res.Type) {
			return apierror.New(http.StatusConflict, "Resource type does not match endpoint.").
				WithDetail(fmt.Sprintf("%s cannot be stored in %s", res.Type, typ))
		}
	}
	return nil
}

func (s *Server) readData(w http.ResponseWriter, r *http.Request) (resource.Data, error) {
	body, err := s.readBody(w, r)
	if err != nil {
		return resource.Data{}, err
	}
	return DecodeData(body)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := io.Reader(r.Body)
	if s.config.MaxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierror.New(http.StatusRequestEntityTooLarge, "Request body too large.")
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}

// paginationLinks builds offset-based links for a page of total results.
func paginationLinks(u *url.URL, offset, limit, total int) *Links {
	last := 0
	if total > 0 {
		last = ((total - 1) / limit) * limit
	}

	links := &Links{
		Self:  pageURL(u, offset, limit),
		First: pageURL(u, 0, limit),
		Last:  pageURL(u, last, limit),
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		links.Prev = pageURL(u, prev, limit)
	}
	if offset+limit < total {
		links.Next = pageURL(u, offset+limit, limit)
	}
	return links
}

func pageURL(u *url.URL, offset, limit int) string {
	q := u.Query()
	q.Set(pageOffsetParam, strconv.Itoa(offset))
	q.Set(pageLimitParam, strconv.Itoa(limit))

	out := url.URL{Path: u.Path, RawQuery: q.Encode()}
	return out.String()
}

func errInvalidDocument(detail string) *apierror.APIError {
	return apierror.New(http.StatusBadRequest, "Invalid request document.").WithDetail(detail)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
