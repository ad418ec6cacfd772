// Package schemafile loads model definitions from YAML.
//
//	models:
//	  - name: Organization
//	    fields:
//	      - path: name
//	        type: String
//	        required: true
//	      - path: liaisons
//	        type: ObjectId
//	        array: true
//	        ref: Person
//	      - path: created
//	        type: Date
//	        default: now
//	  - name: School
//	    extends: Organization
//	    fields:
//	      - path: isCollege
//	        type: Boolean
package schemafile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
	"github.com/ChangJoo-Park/json-api/internal/util/graph"
)

// DynamicNow is the default value that resolves to the current time.
const DynamicNow = "now"

// File is a parsed schema file.
type File struct {
	Models []ModelDef `yaml:"models"`
}

// ModelDef declares one model.
type ModelDef struct {
	Name     string       `yaml:"name"`
	Extends  string       `yaml:"extends,omitempty"`
	Fields   []FieldDef   `yaml:"fields"`
	Virtuals []VirtualDef `yaml:"virtuals,omitempty"`
}

// FieldDef declares one field.
type FieldDef struct {
	Path         string                 `yaml:"path"`
	Type         string                 `yaml:"type"`
	Array        bool                   `yaml:"array,omitempty"`
	Ref          string                 `yaml:"ref,omitempty"`
	Required     bool                   `yaml:"required,omitempty"`
	Enum         []string               `yaml:"enum,omitempty"`
	Max          *float64               `yaml:"max,omitempty"`
	MaxLength    *int                   `yaml:"maxlength,omitempty"`
	Default      interface{}            `yaml:"default,omitempty"`
	Set          string                 `yaml:"set,omitempty"`
	Validation   map[string]interface{} `yaml:"validation,omitempty"`
	FriendlyName string                 `yaml:"friendlyName,omitempty"`
}

// VirtualDef declares a virtual that mirrors a stored path under another
// name.
type VirtualDef struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
}

var setters = map[string]func(string) string{
	"lowercase": strings.ToLower,
	"uppercase": strings.ToUpper,
	"trim":      strings.TrimSpace,
}

// Parse decodes a schema file.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	return &f, nil
}

// Load reads and parses the schema file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer fh.Close()

	return Parse(fh)
}

// Apply defines every model of the file on store. Parents are defined
// before their subtypes regardless of file order.
func (f *File) Apply(store *engine.Store) error {
	byName := make(map[string]ModelDef, len(f.Models))
	nodes := make([]string, 0, len(f.Models))
	edges := make(map[string][]string)

	for _, def := range f.Models {
		if def.Name == "" {
			return fmt.Errorf("model without a name")
		}
		if _, dup := byName[def.Name]; dup {
			return fmt.Errorf("model %s is declared twice", def.Name)
		}
		byName[def.Name] = def
		nodes = append(nodes, def.Name)
		if def.Extends != "" {
			edges[def.Extends] = append(edges[def.Extends], def.Name)
		}
	}

	for _, def := range f.Models {
		if def.Extends != "" {
			if _, ok := byName[def.Extends]; !ok {
				return fmt.Errorf("model %s extends unknown model %s", def.Name, def.Extends)
			}
		}
	}

	ordered := graph.PseudoTopSort(nodes, edges, graph.Roots(nodes, edges))
	if len(ordered) != len(nodes) {
		return fmt.Errorf("model inheritance contains a cycle")
	}

	for _, name := range ordered {
		def := byName[name]
		schema, err := def.schema(store)
		if err != nil {
			return err
		}

		if def.Extends == "" {
			_, err = store.Define(def.Name, schema)
		} else {
			_, err = store.DefineDiscriminator(def.Extends, def.Name, schema)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (def ModelDef) schema(store *engine.Store) (*docstore.Schema, error) {
	schema := &docstore.Schema{}
	if def.Extends == "" {
		schema = docstore.NewSchema()
	}

	for _, fd := range def.Fields {
		field, err := fd.field(store)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", def.Name, err)
		}
		schema.Fields = append(schema.Fields, field)
	}

	for _, vd := range def.Virtuals {
		from, err := docstore.ParsePath(vd.From)
		if err != nil {
			return nil, fmt.Errorf("model %s: virtual %s: %w", def.Name, vd.Name, err)
		}
		schema.Virtuals = append(schema.Virtuals, &docstore.Virtual{
			Name: vd.Name,
			Get: func(values map[string]interface{}) interface{} {
				v, _ := docstore.GetPath(values, from)
				return v
			},
		})
	}
	return schema, nil
}

func (fd FieldDef) field(store *engine.Store) (*docstore.Field, error) {
	path, err := docstore.ParsePath(fd.Path)
	if err != nil {
		return nil, err
	}

	typ := docstore.TypeMixed
	if fd.Type != "" {
		typ, err = docstore.ParseBaseType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Path, err)
		}
	}
	if fd.Ref != "" {
		typ = docstore.TypeObjectID
	}

	field := &docstore.Field{
		Path:         path,
		Type:         typ,
		Array:        fd.Array,
		Ref:          fd.Ref,
		Required:     fd.Required,
		Enum:         fd.Enum,
		Max:          fd.Max,
		MaxLength:    fd.MaxLength,
		Validation:   fd.Validation,
		FriendlyName: fd.FriendlyName,
	}

	if s, ok := fd.Default.(string); ok && s == DynamicNow && typ == docstore.TypeDate {
		field.DefaultFunc = store.Now()
	} else {
		field.Default = fd.Default
	}

	if fd.Set != "" {
		fn, ok := setters[fd.Set]
		if !ok {
			return nil, fmt.Errorf("field %s: unknown setter %q", fd.Path, fd.Set)
		}
		field.Set = stringSetter(fn)
	}
	return field, nil
}

func stringSetter(fn func(string) string) func(interface{}) interface{} {
	return func(v interface{}) interface{} {
		switch val := v.(type) {
		case string:
			return fn(val)
		case []interface{}:
			out := make([]interface{}, len(val))
			for i, item := range val {
				if s, ok := item.(string); ok {
					out[i] = fn(s)
				} else {
					out[i] = item
				}
			}
			return out
		default:
			return v
		}
	}
}
