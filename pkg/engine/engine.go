// Package engine is the client for the workflow engine's HTTP surface.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dukex/swf-backend/pkg/upstream"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

const (
	openAPIPath = "/q/openapi"
	healthPath  = "/q/health"
	graphQLPath = "/graphql"
)

const (
	instancesQuery = `{ ProcessInstances (where: {processId: {isNull: false} } ) { id, processId, state, start, nodes { id }, variables } }`
	instanceQuery  = `{ ProcessInstances (where: { id: {equal: %s } } ) { id, processId, state, start, nodes { id, nodeId, type, name, enter, exit }, variables } }`
)

// Tag is one workflow advertised in the engine's OpenAPI document.
type Tag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Source is a deployed workflow definition as returned by the engine.
type Source struct {
	ID          string
	Name        string
	Description string
	Raw         []byte
}

// Indented renders the source as 2-space indented JSON, keeping the
// engine's key order and number literals.
func (s *Source) Indented() (string, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, s.Raw, "", "  "); err != nil {
		return "", fmt.Errorf("failed to indent workflow source %s: %w", s.ID, err)
	}

	return out.String(), nil
}

// Client calls the engine at {baseURL}:{port}.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an engine client.
func NewClient(baseURL string, port int, httpClient *http.Client) *Client {
	return &Client{
		baseURL: baseURL + ":" + strconv.Itoa(port),
		client:  httpClient,
	}
}

// BaseURL returns the engine address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthURL returns the engine health endpoint.
func (c *Client) HealthURL() string {
	return c.baseURL + healthPath
}

// get reads an engine document whatever the response status; only transport
// failures are errors here.
func (c *Client) get(ctx context.Context, path string) (*upstream.Response, error) {
	return upstream.Do(ctx, c.client, http.MethodGet, c.baseURL+path, nil)
}

// Tags lists the workflows the engine advertises as OpenAPI tags. The
// document may be YAML or JSON; a body that is not a document with a tag
// list yields an empty list.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	resp, err := c.get(ctx, openAPIPath)
	if err != nil {
		return nil, err
	}

	var document map[string]yaml.Node
	if err := yaml.Unmarshal(resp.Body, &document); err != nil {
		return nil, fmt.Errorf("failed to decode engine openapi document: %w", err)
	}

	node, ok := document["tags"]
	if !ok || node.Kind != yaml.SequenceNode {
		return []Tag{}, nil
	}

	tags := []Tag{}
	if err := node.Decode(&tags); err != nil {
		return []Tag{}, nil
	}

	return tags, nil
}

// Source fetches the deployed definition of one workflow. The body is read
// whatever the response status; it only has to be JSON.
func (c *Client) Source(ctx context.Context, workflowID string) (*Source, error) {
	resp, err := c.get(ctx, "/management/processes/"+url.PathEscape(workflowID)+"/source")
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("engine returned a non-JSON source for %s", workflowID)
	}

	fields := gjson.GetManyBytes(resp.Body, "name", "description")

	return &Source{
		ID:          workflowID,
		Name:        fields[0].String(),
		Description: fields[1].String(),
		Raw:         resp.Body,
	}, nil
}

// Execute starts a workflow instance and returns the engine reply verbatim.
func (c *Client) Execute(ctx context.Context, workflowID string, input []byte) (*upstream.Response, error) {
	if len(input) == 0 {
		input = []byte("{}")
	}

	return upstream.Do(ctx, c.client, http.MethodPost, c.baseURL+"/"+url.PathEscape(workflowID), input)
}

// Instances queries every workflow instance known to the engine.
func (c *Client) Instances(ctx context.Context) (*upstream.Response, error) {
	return c.query(ctx, instancesQuery)
}

// Instance queries one workflow instance with its node history.
func (c *Client) Instance(ctx context.Context, instanceID string) (*upstream.Response, error) {
	quoted, err := json.Marshal(instanceID)
	if err != nil {
		return nil, err
	}

	return c.query(ctx, fmt.Sprintf(instanceQuery, quoted))
}

func (c *Client) query(ctx context.Context, query string) (*upstream.Response, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	return upstream.Do(ctx, c.client, http.MethodPost, c.baseURL+graphQLPath, body)
}
