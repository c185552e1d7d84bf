// Package catalog talks to the host's action catalog (the scaffolder) and
// derives the actions OpenAPI document the engine resolves functions against.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dukex/swf-backend/pkg/discovery"
	"github.com/dukex/swf-backend/pkg/upstream"
)

// ServiceName is the logical name of the action catalog service.
const ServiceName = "scaffolder"

// Action is one entry of the scaffolder action list.
type Action struct {
	ID          string       `json:"id"`
	Description string       `json:"description,omitempty"`
	Schema      ActionSchema `json:"schema,omitempty"`
}

// ActionSchema holds the JSON-Schemas of an action's input and output.
type ActionSchema struct {
	Input  map[string]any `json:"input,omitempty"`
	Output map[string]any `json:"output,omitempty"`
}

// Client calls the scaffolder resolved through discovery.
type Client struct {
	discovery   discovery.Discovery
	client      *http.Client
	callbackURL string
}

// NewClient creates a catalog client. callbackURL is the address under which
// the engine reaches this backend's engine-facing routes.
func NewClient(d discovery.Discovery, httpClient *http.Client, callbackURL string) *Client {
	return &Client{
		discovery:   d,
		client:      httpClient,
		callbackURL: callbackURL,
	}
}

func (c *Client) actionsURL(ctx context.Context, actionID string) (string, error) {
	base, err := c.discovery.BaseURL(ctx, ServiceName)
	if err != nil {
		return "", err
	}

	target := base + "/v2/actions"
	if actionID != "" {
		target += "/" + url.PathEscape(actionID)
	}

	return target, nil
}

// List returns the raw scaffolder action list response.
func (c *Client) List(ctx context.Context) (*upstream.Response, error) {
	target, err := c.actionsURL(ctx, "")
	if err != nil {
		return nil, err
	}

	return upstream.Do(ctx, c.client, http.MethodGet, target, nil)
}

// Invoke forwards an action invocation and returns the raw response.
func (c *Client) Invoke(ctx context.Context, actionID string, body []byte) (*upstream.Response, error) {
	target, err := c.actionsURL(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		body = []byte("{}")
	}

	return upstream.Do(ctx, c.client, http.MethodPost, target, body)
}

// Actions decodes the scaffolder action list.
func (c *Client) Actions(ctx context.Context) ([]Action, error) {
	target, err := c.actionsURL(ctx, "")
	if err != nil {
		return nil, err
	}

	resp, err := upstream.Do(ctx, c.client, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	if err := upstream.Expect2xx(resp, target); err != nil {
		return nil, err
	}

	var actions []Action
	if err := json.Unmarshal(resp.Body, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode action list: %w", err)
	}

	return actions, nil
}

// InputSchemas maps each action id to its input schema. Actions without an
// input schema are omitted.
func (c *Client) InputSchemas(ctx context.Context) (map[string]map[string]any, error) {
	actions, err := c.Actions(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make(map[string]map[string]any, len(actions))

	for _, action := range actions {
		if len(action.Schema.Input) == 0 {
			continue
		}

		schemas[action.ID] = action.Schema.Input
	}

	return schemas, nil
}

// GenerateOpenAPI fetches the actions and renders their OpenAPI document.
func (c *Client) GenerateOpenAPI(ctx context.Context) (map[string]any, error) {
	actions, err := c.Actions(ctx)
	if err != nil {
		return nil, err
	}

	return GenerateOpenAPI(actions, c.callbackURL), nil
}
