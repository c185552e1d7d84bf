// Package workflow provides the Serverless Workflow definition model and its
// JSON/YAML wire formats.
package workflow

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Definition is a Serverless Workflow document. Top-level keys without a
// field of their own are kept in Extra so a document survives a round trip.
type Definition struct {
	ID              string         `json:"id"                        validate:"required"       yaml:"id"`
	Key             string         `json:"key,omitempty"                                       yaml:"key,omitempty"`
	Name            string         `json:"name,omitempty"                                      yaml:"name,omitempty"`
	Description     string         `json:"description,omitempty"                               yaml:"description,omitempty"`
	Version         string         `json:"version,omitempty"                                   yaml:"version,omitempty"`
	SpecVersion     string         `json:"specVersion,omitempty"                               yaml:"specVersion,omitempty"`
	ExpressionLang  string         `json:"expressionLang,omitempty"                            yaml:"expressionLang,omitempty"`
	Start           any            `json:"start,omitempty"                                     yaml:"start,omitempty"`
	DataInputSchema any            `json:"dataInputSchema,omitempty"                           yaml:"dataInputSchema,omitempty"`
	KeepActive      bool           `json:"keepActive,omitempty"                                yaml:"keepActive,omitempty"`
	AutoRetries     bool           `json:"autoRetries,omitempty"                               yaml:"autoRetries,omitempty"`
	Annotations     []string       `json:"annotations,omitempty"                               yaml:"annotations,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"                                  yaml:"metadata,omitempty"`
	Timeouts        map[string]any `json:"timeouts,omitempty"                                  yaml:"timeouts,omitempty"`
	Constants       map[string]any `json:"constants,omitempty"                                 yaml:"constants,omitempty"`
	Secrets         []string       `json:"secrets,omitempty"                                   yaml:"secrets,omitempty"`
	Auth            []Object       `json:"auth,omitempty"                                      yaml:"auth,omitempty"`
	Functions       []Function     `json:"functions,omitempty"       validate:"dive"           yaml:"functions,omitempty"`
	Events          []Object       `json:"events,omitempty"                                    yaml:"events,omitempty"`
	Errors          []Object       `json:"errors,omitempty"                                    yaml:"errors,omitempty"`
	Retries         []Object       `json:"retries,omitempty"                                   yaml:"retries,omitempty"`
	Extensions      []Object       `json:"extensions,omitempty"                                yaml:"extensions,omitempty"`
	States          []State        `json:"states"                    validate:"required,min=1" yaml:"states"`
	Extra           map[string]any `json:"-"                                                   yaml:",inline"`
}

// definitionFields has the fields of Definition without its JSON methods.
type definitionFields Definition

var knownKeys = jsonKeys(reflect.TypeFor[definitionFields]())

func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())

	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}

	return keys
}

// UnmarshalJSON decodes the modelled fields and collects the rest in Extra.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var fields definitionFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	for key := range all {
		if knownKeys[key] {
			delete(all, key)
		}
	}

	fields.Extra = nil
	if len(all) > 0 {
		fields.Extra = all
	}

	*d = Definition(fields)

	return nil
}

// MarshalJSON writes the modelled fields in declaration order followed by
// the Extra keys sorted by name.
func (d Definition) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(definitionFields(d))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])

	first := len(data) == 2

	for _, key := range slices.Sorted(maps.Keys(d.Extra)) {
		if knownKeys[key] {
			continue
		}

		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(d.Extra[key])
		if err != nil {
			return nil, err
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// DataInputSchemaPath returns the schema reference in either the string or
// the object form of dataInputSchema.
func (d *Definition) DataInputSchemaPath() string {
	switch v := d.DataInputSchema.(type) {
	case string:
		return v
	case map[string]any:
		path, _ := v["schema"].(string)
		return path
	default:
		return ""
	}
}

// SetDataInputSchemaPath points dataInputSchema at path. The object form
// keeps its other settings.
func (d *Definition) SetDataInputSchemaPath(path string) {
	if v, ok := d.DataInputSchema.(map[string]any); ok {
		annotated := maps.Clone(v)
		annotated["schema"] = path
		d.DataInputSchema = annotated

		return
	}

	d.DataInputSchema = path
}

// Function declares an operation that action states can invoke.
type Function struct {
	Name      string         `json:"name"                validate:"required" yaml:"name"`
	Operation string         `json:"operation,omitempty"                     yaml:"operation,omitempty"`
	Type      string         `json:"type,omitempty"                          yaml:"type,omitempty"`
	AuthRef   string         `json:"authRef,omitempty"                       yaml:"authRef,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"                      yaml:"metadata,omitempty"`
}

// Object is a free-form JSON object.
type Object = map[string]any

// State is kept as a free-form object; the shape depends on the state type.
type State = map[string]any

// Item pairs a definition with the resource identifier it is stored under.
type Item struct {
	URI        string      `json:"uri"        validate:"required"`
	Definition *Definition `json:"definition" validate:"required"`
}

// FunctionByName returns the declared function with the given name.
func (d *Definition) FunctionByName(name string) (Function, bool) {
	for _, fn := range d.Functions {
		if fn.Name == name {
			return fn, true
		}
	}

	return Function{}, false
}
