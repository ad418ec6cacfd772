package adapter

import (
	"fmt"
	"net/http"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/naming"
)

// Registry maps model names to store models. It is read-only after
// construction.
type Registry struct {
	models map[string]docstore.Model
	order  []string
}

// NewRegistry creates a registry holding models. Every discriminator child
// must be registered alongside its parent.
func NewRegistry(models ...docstore.Model) (*Registry, error) {
	r := &Registry{models: make(map[string]docstore.Model, len(models))}
	for _, m := range models {
		name := m.Name()
		if _, exists := r.models[name]; exists {
			return nil, fmt.Errorf("model %s is registered twice", name)
		}
		r.models[name] = m
		r.order = append(r.order, name)
	}

	for _, m := range models {
		if base := m.BaseModel(); base != "" {
			if _, ok := r.models[base]; !ok {
				return nil, fmt.Errorf("model %s extends unregistered model %s", m.Name(), base)
			}
		}
	}
	return r, nil
}

// Model returns the model registered as name.
func (r *Registry) Model(name string) (docstore.Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns the models in registration order.
func (r *Registry) Models() []docstore.Model {
	out := make([]docstore.Model, len(r.order))
	for i, name := range r.order {
		out[i] = r.models[name]
	}
	return out
}

// Types returns the API type of every registered model.
func (r *Registry) Types() []string {
	types := make([]string, len(r.order))
	for i, name := range r.order {
		types[i] = naming.APIType(name)
	}
	return types
}

// ForType resolves the model behind an API type.
func (r *Registry) ForType(typ string) (docstore.Model, error) {
	m, ok := r.models[naming.ModelName(typ)]
	if !ok || naming.APIType(m.Name()) != typ {
		return nil, apierror.New(http.StatusNotFound, "Unknown resource type.").WithDetail(typ)
	}
	return m, nil
}
