package catalog

const openAPIVersion = "3.0.3"

// GenerateOpenAPI renders one POST operation per action, with the action id
// as operationId so workflow functions can reference `actions-openapi.json#{id}`.
// It returns nil when there are no actions.
func GenerateOpenAPI(actions []Action, serverURL string) map[string]any {
	if len(actions) == 0 {
		return nil
	}

	paths := make(map[string]any, len(actions))

	for _, action := range actions {
		input := action.Schema.Input
		if len(input) == 0 {
			input = map[string]any{"type": "object"}
		}

		output := action.Schema.Output
		if len(output) == 0 {
			output = map[string]any{"type": "object"}
		}

		operation := map[string]any{
			"operationId": action.ID,
			"requestBody": map[string]any{
				"required": true,
				"content": map[string]any{
					"application/json": map[string]any{"schema": input},
				},
			},
			"responses": map[string]any{
				"default": map[string]any{
					"description": "Action result",
					"content": map[string]any{
						"application/json": map[string]any{"schema": output},
					},
				},
			},
		}

		if action.Description != "" {
			operation["description"] = action.Description
		}

		paths["/actions/"+action.ID] = map[string]any{"post": operation}
	}

	document := map[string]any{
		"openapi": openAPIVersion,
		"info": map[string]any{
			"title":   "Workflow Actions OpenAPI",
			"version": "0.0.1",
		},
		"paths": paths,
	}

	if serverURL != "" {
		document["servers"] = []any{map[string]any{"url": serverURL}}
	}

	return document
}
