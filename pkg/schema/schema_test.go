package schema_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/swf-backend/pkg/schema"
	"github.com/dukex/swf-backend/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	schemas map[string]map[string]any
	err     error
	calls   int
}

func (s *stubCatalog) InputSchemas(context.Context) (map[string]map[string]any, error) {
	s.calls++

	return s.schemas, s.err
}

func objectSchema(required ...string) map[string]any {
	properties := map[string]any{}
	for _, name := range required {
		properties[name] = map[string]any{"type": "string"}
	}

	return map[string]any{
		"type":       "object",
		"required":   toAny(required),
		"properties": properties,
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}

func scaffolderDefinition() *workflow.Definition {
	return &workflow.Definition{
		ID:   "create-repo",
		Name: "Create repository",
		Functions: []workflow.Function{
			{Name: "fetch", Operation: "specs/actions-openapi.json#fetch:template"},
			{Name: "publish", Operation: "specs/actions-openapi.json#publish:github"},
			{Name: "log", Operation: "sysout", Type: "custom"},
		},
		States: []workflow.State{
			{
				"name": "Fetch",
				"type": "operation",
				"actions": []any{
					map[string]any{"functionRef": map[string]any{"refName": "fetch"}},
					map[string]any{"functionRef": "log"},
				},
				"transition": "Publish",
			},
			{
				"name": "Publish",
				"type": "parallel",
				"branches": []any{
					map[string]any{"name": "b1", "actions": []any{
						map[string]any{"functionRef": map[string]any{"refName": "publish"}},
						map[string]any{"functionRef": map[string]any{"refName": "fetch"}},
					}},
				},
				"end": true,
			},
		},
	}
}

func TestActionNames(t *testing.T) {
	t.Parallel()

	names := schema.ActionNames(scaffolderDefinition())

	assert.Equal(t, []string{"fetch:template", "log", "publish:github"}, names)
}

func TestActionNames_EventAndCallbackStates(t *testing.T) {
	t.Parallel()

	def := &workflow.Definition{
		ID: "events",
		States: []workflow.State{
			{"name": "Wait", "type": "event", "onEvents": []any{
				map[string]any{"eventRefs": []any{"e"}, "actions": []any{
					map[string]any{"functionRef": "notify"},
				}},
			}},
			{"name": "Callback", "type": "callback", "action": map[string]any{"functionRef": "approve"}},
			{"name": "Inject", "type": "inject", "data": map[string]any{}},
		},
	}

	assert.Equal(t, []string{"notify", "approve"}, schema.ActionNames(def))
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{schemas: map[string]map[string]any{
		"fetch:template": objectSchema("url"),
		"publish:github": objectSchema("repoUrl"),
		"debug:log":      objectSchema("message"),
	}}

	generator := schema.NewGenerator(catalog, slog.Default())

	result, err := generator.Generate(context.Background(), scaffolderDefinition())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "create-repo__main-schema.json", result.Composition.FileName)
	require.Len(t, result.Actions, 2)
	assert.Equal(t, "create-repo__sub-schema__fetch_template.json", result.Actions[0].FileName)
	assert.Equal(t, "create-repo__sub-schema__publish_github.json", result.Actions[1].FileName)

	properties, ok := result.Composition.JSONSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"$ref": "create-repo__sub-schema__fetch_template.json"}, properties["fetch:template"])
	assert.Equal(t, map[string]any{"$ref": "create-repo__sub-schema__publish_github.json"}, properties["publish:github"])
	assert.NotContains(t, properties, "log")
	assert.Equal(t, "Create repository", result.Composition.JSONSchema["title"])

	assert.Equal(t, "schemas/create-repo__main-schema.json", result.CompositionPath(schema.Folder))
	assert.Len(t, result.Files(), 3)
}

func TestGenerator_CollidingFileNames(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{schemas: map[string]map[string]any{
		"fetch:plain": objectSchema("url"),
		"fetch/plain": objectSchema("path"),
	}}

	def := &workflow.Definition{
		ID: "fetcher",
		Functions: []workflow.Function{
			{Name: "remote", Operation: "specs/actions-openapi.json#fetch:plain"},
			{Name: "local", Operation: "specs/actions-openapi.json#fetch/plain"},
		},
		States: []workflow.State{{
			"name": "Fetch",
			"type": "operation",
			"actions": []any{
				map[string]any{"functionRef": "remote"},
				map[string]any{"functionRef": "local"},
			},
			"end": true,
		}},
	}

	result, err := schema.NewGenerator(catalog, slog.Default()).Generate(context.Background(), def)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Actions, 2)

	first, second := result.Actions[0].FileName, result.Actions[1].FileName
	assert.Equal(t, "fetcher__sub-schema__fetch_plain.json", first)
	assert.NotEqual(t, first, second)
	assert.Regexp(t, `^fetcher__sub-schema__fetch_plain_[0-9a-f]{8}\.json$`, second)

	properties, ok := result.Composition.JSONSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"$ref": first}, properties["fetch:plain"])
	assert.Equal(t, map[string]any{"$ref": second}, properties["fetch/plain"])
}

func TestGenerator_NoKnownActions(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{schemas: map[string]map[string]any{}}
	generator := schema.NewGenerator(catalog, slog.Default())

	result, err := generator.Generate(context.Background(), scaffolderDefinition())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGenerator_NoActionStates(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	generator := schema.NewGenerator(catalog, slog.Default())

	def := &workflow.Definition{ID: "inject", States: []workflow.State{{"name": "a", "type": "inject"}}}

	result, err := generator.Generate(context.Background(), def)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, catalog.calls)
}

func TestGenerator_SkipsInvalidSchema(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{schemas: map[string]map[string]any{
		"fetch:template": {"type": 42},
		"publish:github": objectSchema("repoUrl"),
	}}
	generator := schema.NewGenerator(catalog, slog.Default())

	result, err := generator.Generate(context.Background(), scaffolderDefinition())
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, "create-repo__sub-schema__publish_github.json", result.Actions[0].FileName)
}

func TestGenerator_CatalogFailure(t *testing.T) {
	t.Parallel()

	failure := errors.New("catalog unreachable")
	generator := schema.NewGenerator(&stubCatalog{err: failure}, slog.Default())

	result, err := generator.Generate(context.Background(), scaffolderDefinition())
	require.ErrorIs(t, err, failure)
	assert.Nil(t, result)
}

func TestDataInputSchema_AssignIDs(t *testing.T) {
	t.Parallel()

	input := objectSchema("url")
	dis := &schema.DataInputSchema{
		Composition: schema.File{FileName: "wf__main-schema.json", JSONSchema: map[string]any{"type": "object"}},
		Actions: []schema.File{
			{FileName: "wf__sub-schema__a.json", JSONSchema: input},
			{FileName: "wf__sub-schema__b.json", JSONSchema: map[string]any{"$id": "urn:keep", "type": "object"}},
		},
	}

	dis.AssignIDs(schema.Folder)

	assert.Equal(t, "classpath:/schemas/wf__main-schema.json", dis.Composition.JSONSchema["$id"])
	assert.Equal(t, "classpath:/schemas/wf__sub-schema__a.json", dis.Actions[0].JSONSchema["$id"])
	assert.Equal(t, "urn:keep", dis.Actions[1].JSONSchema["$id"])
	assert.Equal(t, "object", dis.Actions[0].JSONSchema["type"])
	assert.NotContains(t, input, "$id")
}
