// Package schema derives the data-input JSON-Schemas of a workflow from the
// input schemas of the actions its states invoke.
package schema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/dukex/swf-backend/pkg/workflow"
	"github.com/xeipuuv/gojsonschema"
)

// Folder is the resource sub-directory holding generated schemas.
const Folder = "schemas"

const (
	draft07            = "http://json-schema.org/draft-07/schema#"
	compositionSuffix  = "__main-schema.json"
	actionSchemaMarker = "__sub-schema__"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Catalog provides the input schema of every known action, keyed by action name.
type Catalog interface {
	InputSchemas(ctx context.Context) (map[string]map[string]any, error)
}

// File is a JSON-Schema together with the file name it is stored under.
type File struct {
	FileName   string
	JSONSchema map[string]any
}

// DataInputSchema is the composition schema of a workflow and the action
// schemas it references.
type DataInputSchema struct {
	Composition File
	Actions     []File
}

// Files returns the composition schema followed by the action schemas.
func (s *DataInputSchema) Files() []File {
	return append([]File{s.Composition}, s.Actions...)
}

// CompositionPath is the resource-relative path stored in the definition.
func (s *DataInputSchema) CompositionPath(folder string) string {
	return path.Join(folder, s.Composition.FileName)
}

// AssignIDs sets `$id` to the classpath location of each file. A schema that
// already carries an `$id` keeps it.
func (s *DataInputSchema) AssignIDs(folder string) {
	s.Composition.JSONSchema = withID(s.Composition.JSONSchema, "classpath:/"+path.Join(folder, s.Composition.FileName))

	for i := range s.Actions {
		s.Actions[i].JSONSchema = withID(s.Actions[i].JSONSchema, "classpath:/"+path.Join(folder, s.Actions[i].FileName))
	}
}

func withID(jsonSchema map[string]any, id string) map[string]any {
	out := make(map[string]any, len(jsonSchema)+1)
	out["$id"] = id

	for key, value := range jsonSchema {
		out[key] = value
	}

	return out
}

// Generator builds DataInputSchemas from an action catalog.
type Generator struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewGenerator creates a schema generator backed by the given catalog.
func NewGenerator(catalog Catalog, logger *slog.Logger) *Generator {
	return &Generator{
		catalog: catalog,
		logger:  logger.With("module", "schema_generator"),
	}
}

// Generate returns nil when none of the invoked actions declares an input schema.
func (g *Generator) Generate(ctx context.Context, def *workflow.Definition) (*DataInputSchema, error) {
	names := ActionNames(def)
	if len(names) == 0 {
		return nil, nil
	}

	inputs, err := g.catalog.InputSchemas(ctx)
	if err != nil {
		return nil, err
	}

	properties := make(map[string]any, len(names))
	actions := make([]File, 0, len(names))
	used := make(map[string]bool, len(names))

	for _, name := range names {
		input, ok := inputs[name]
		if !ok || len(input) == 0 {
			continue
		}

		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(input)); err != nil {
			g.logger.WarnContext(ctx, "Skipping invalid action input schema", "action", name, "error", err)

			continue
		}

		fileName := ActionFileName(def.ID, name)
		if used[fileName] {
			fileName = uniqueActionFileName(def.ID, name)
		}

		used[fileName] = true
		actions = append(actions, File{FileName: fileName, JSONSchema: copySchema(input)})
		properties[name] = map[string]any{"$ref": fileName}
	}

	if len(actions) == 0 {
		return nil, nil
	}

	title := def.Name
	if title == "" {
		title = def.ID
	}

	return &DataInputSchema{
		Composition: File{
			FileName: CompositionFileName(def.ID),
			JSONSchema: map[string]any{
				"$schema":    draft07,
				"title":      title,
				"type":       "object",
				"properties": properties,
			},
		},
		Actions: actions,
	}, nil
}

// CompositionFileName is the schema file name of a workflow's composition schema.
func CompositionFileName(workflowID string) string {
	return sanitize(workflowID) + compositionSuffix
}

// ActionFileName is the schema file name of one action referenced by a workflow.
func ActionFileName(workflowID, action string) string {
	return sanitize(workflowID) + actionSchemaMarker + sanitize(action) + ".json"
}

// uniqueActionFileName disambiguates actions whose sanitized names collide,
// such as `fetch:plain` and `fetch/plain`.
func uniqueActionFileName(workflowID, action string) string {
	sum := sha256.Sum256([]byte(action))

	return sanitize(workflowID) + actionSchemaMarker + sanitize(action) + "_" + hex.EncodeToString(sum[:4]) + ".json"
}

func sanitize(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

func copySchema(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}

	return out
}

// ActionNames lists the distinct actions invoked by a definition's states in
// order of first appearance.
func ActionNames(def *workflow.Definition) []string {
	var names []string

	seen := make(map[string]bool)

	add := func(action any) {
		name := actionName(def, action)
		if name == "" || seen[name] {
			return
		}

		seen[name] = true
		names = append(names, name)
	}

	for _, state := range def.States {
		for _, action := range list(state["actions"]) {
			add(action)
		}

		if action, ok := state["action"]; ok {
			add(action)
		}

		for _, nested := range append(list(state["onEvents"]), list(state["branches"])...) {
			carrier, ok := nested.(map[string]any)
			if !ok {
				continue
			}

			for _, action := range list(carrier["actions"]) {
				add(action)
			}
		}
	}

	return names
}

func actionName(def *workflow.Definition, action any) string {
	obj, ok := action.(map[string]any)
	if !ok {
		return ""
	}

	var ref string

	switch functionRef := obj["functionRef"].(type) {
	case string:
		ref = functionRef
	case map[string]any:
		ref, _ = functionRef["refName"].(string)
	}

	if ref == "" {
		return ""
	}

	fn, ok := def.FunctionByName(ref)
	if !ok {
		return ref
	}

	if _, fragment, found := strings.Cut(fn.Operation, "#"); found && fragment != "" {
		return fragment
	}

	return fn.Name
}

func list(value any) []any {
	items, _ := value.([]any)

	return items
}
