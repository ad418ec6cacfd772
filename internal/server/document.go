package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

// JSONAPIMediaType is the official JSON:API media type
const JSONAPIMediaType = "application/vnd.api+json"

// Links holds the links member of a document.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last,omitempty"`
}

// Document is a top-level response document.
type Document struct {
	Data     interface{}            `json:"data"`
	Included []*ResourceObject      `json:"included,omitempty"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
	Links    *Links                 `json:"links,omitempty"`
}

// ResourceObject is the wire form of a resource.
type ResourceObject struct {
	Type          string                        `json:"type"`
	ID            string                        `json:"id,omitempty"`
	Attributes    map[string]interface{}        `json:"attributes,omitempty"`
	Relationships map[string]RelationshipObject `json:"relationships,omitempty"`
	Links         *Links                        `json:"links,omitempty"`
}

// RelationshipObject carries a relationship's linkage. Data is nil for an
// empty to-one relationship and a list for to-many.
type RelationshipObject struct {
	Data interface{} `json:"data"`
}

// ErrorObject is one entry of an error document.
type ErrorObject struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// ErrorDocument is a top-level error document.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// EncodeResource converts a resource to its wire form. A non-empty basePath
// adds a self link.
func EncodeResource(r *resource.Resource, basePath string) *ResourceObject {
	if r == nil {
		return nil
	}

	obj := &ResourceObject{
		Type:       r.Type,
		ID:         r.ID,
		Attributes: r.Attributes,
	}
	if len(r.Relationships) > 0 {
		obj.Relationships = make(map[string]RelationshipObject, len(r.Relationships))
		for name, rel := range r.Relationships {
			obj.Relationships[name] = RelationshipObject{Data: EncodeLinkage(rel.Linkage)}
		}
	}
	if r.ID != "" {
		obj.Links = &Links{Self: basePath + "/" + r.Type + "/" + r.ID}
	}
	return obj
}

// EncodeData converts primary data to its wire form.
func EncodeData(d resource.Data, basePath string) interface{} {
	if !d.IsMany() {
		if d.Resource() == nil {
			return nil
		}
		return EncodeResource(d.Resource(), basePath)
	}
	return EncodeCollection(d.Collection(), basePath)
}

// EncodeCollection converts resources to their wire form. The result is
// never nil.
func EncodeCollection(c resource.Collection, basePath string) []*ResourceObject {
	out := make([]*ResourceObject, len(c))
	for i, r := range c {
		out[i] = EncodeResource(r, basePath)
	}
	return out
}

// EncodeLinkage converts linkage to the value of a relationship's data
// member.
func EncodeLinkage(l resource.Linkage) interface{} {
	if !l.IsToMany() {
		if l.One() == nil {
			return nil
		}
		return *l.One()
	}
	// Entries that are nil are dropped, matching Identifiers.
	return l.Identifiers()
}

type rawDocument struct {
	Data json.RawMessage `json:"data"`
}

type rawResource struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id"`
	Attributes    map[string]interface{}     `json:"attributes"`
	Relationships map[string]map[string]json.RawMessage `json:"relationships"`
}

// DecodeData reads the primary data of a request document. A null or absent
// data member decodes to an empty single resource.
func DecodeData(body []byte) (resource.Data, error) {
	raw, err := decodeDocument(body)
	if err != nil {
		return resource.Data{}, err
	}

	switch {
	case isNull(raw):
		return resource.Single(nil), nil
	case raw[0] == '[':
		var list []rawResource
		if err := json.Unmarshal(raw, &list); err != nil {
			return resource.Data{}, errMalformed(err)
		}
		c := make(resource.Collection, 0, len(list))
		for _, item := range list {
			r, err := item.toResource()
			if err != nil {
				return resource.Data{}, err
			}
			c = append(c, r)
		}
		return resource.Many(c), nil
	default:
		var item rawResource
		if err := json.Unmarshal(raw, &item); err != nil {
			return resource.Data{}, errMalformed(err)
		}
		r, err := item.toResource()
		if err != nil {
			return resource.Data{}, err
		}
		return resource.Single(r), nil
	}
}

// DecodeLinkage reads the data member of a relationship request document.
func DecodeLinkage(body []byte) (resource.Linkage, error) {
	raw, err := decodeDocument(body)
	if err != nil {
		return resource.Linkage{}, err
	}
	return decodeLinkage(raw)
}

// DecodeIdentifiers reads a list of resource identifiers, as sent to a bulk
// delete. An empty body yields no identifiers.
func DecodeIdentifiers(body []byte) ([]resource.Identifier, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	linkage, err := DecodeLinkage(body)
	if err != nil {
		return nil, err
	}
	if !linkage.IsToMany() {
		return nil, apierror.New(http.StatusBadRequest, "Invalid request document.").
			WithDetail("data must be a list of resource identifiers")
	}
	return linkage.Identifiers(), nil
}

func (r rawResource) toResource() (*resource.Resource, error) {
	rels := make(map[string]resource.Relationship, len(r.Relationships))
	for name, rel := range r.Relationships {
		data, ok := rel["data"]
		if !ok {
			return nil, apierror.New(http.StatusBadRequest, "Invalid relationship data.").
				WithDetail(fmt.Sprintf("relationship %q has no data member", name))
		}
		linkage, err := decodeLinkage(bytes.TrimSpace(data))
		if err != nil {
			return nil, err
		}
		rels[name] = resource.NewRelationship(linkage)
	}
	return resource.New(r.Type, r.ID, r.Attributes, rels), nil
}

func decodeLinkage(raw json.RawMessage) (resource.Linkage, error) {
	if isNull(raw) {
		return resource.ToOne(nil), nil
	}
	if raw[0] == '[' {
		var ids []*resource.Identifier
		if err := json.Unmarshal(raw, &ids); err != nil {
			return resource.Linkage{}, errMalformed(err)
		}
		return resource.ToMany(ids), nil
	}
	var id resource.Identifier
	if err := json.Unmarshal(raw, &id); err != nil {
		return resource.Linkage{}, errMalformed(err)
	}
	return resource.ToOne(&id), nil
}

func decodeDocument(body []byte) (json.RawMessage, error) {
	var doc rawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errMalformed(err)
	}
	return bytes.TrimSpace(doc.Data), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func errMalformed(err error) *apierror.APIError {
	return apierror.New(http.StatusBadRequest, "Invalid request document.").WithDetail(err.Error())
}
