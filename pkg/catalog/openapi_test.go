package catalog_test

import (
	"testing"

	"github.com/dukex/swf-backend/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpenAPI(t *testing.T) {
	t.Parallel()

	input := map[string]any{"type": "object", "required": []any{"name"}}
	actions := []catalog.Action{
		{ID: "greet", Description: "Says hello", Schema: catalog.ActionSchema{Input: input}},
	}

	document := catalog.GenerateOpenAPI(actions, "")
	require.NotNil(t, document)
	assert.NotContains(t, document, "servers")

	paths := document["paths"].(map[string]any)
	operation := paths["/actions/greet"].(map[string]any)["post"].(map[string]any)

	assert.Equal(t, "greet", operation["operationId"])
	assert.Equal(t, "Says hello", operation["description"])

	body := operation["requestBody"].(map[string]any)
	schema := body["content"].(map[string]any)["application/json"].(map[string]any)["schema"]
	assert.Equal(t, input, schema)
}

func TestGenerateOpenAPI_NoActions(t *testing.T) {
	t.Parallel()

	assert.Nil(t, catalog.GenerateOpenAPI(nil, "http://localhost:7007"))
}
