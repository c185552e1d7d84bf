package catalog_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/swf-backend/pkg/catalog"
	"github.com/dukex/swf-backend/pkg/discovery"
	"github.com/dukex/swf-backend/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const actionList = `[
  {"id":"fetch:plain","description":"Downloads content","schema":{"input":{"type":"object","properties":{"url":{"type":"string"}}}}},
  {"id":"debug:log","schema":{}}
]`

func newScaffolder(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/scaffolder/v2/actions":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(actionList))
		case r.Method == http.MethodPost && r.URL.Path == "/api/scaffolder/v2/actions/fetch:plain":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no such action"))
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func newClient(t *testing.T, server *httptest.Server) *catalog.Client {
	t.Helper()

	d := discovery.Static{catalog.ServiceName: server.URL + "/api/scaffolder"}

	return catalog.NewClient(d, server.Client(), "http://host.docker.internal:7007")
}

func TestClient_Actions(t *testing.T) {
	t.Parallel()

	client := newClient(t, newScaffolder(t))

	actions, err := client.Actions(t.Context())
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "fetch:plain", actions[0].ID)
	assert.Equal(t, "Downloads content", actions[0].Description)
}

func TestClient_InputSchemas(t *testing.T) {
	t.Parallel()

	client := newClient(t, newScaffolder(t))

	schemas, err := client.InputSchemas(t.Context())
	require.NoError(t, err)
	assert.Len(t, schemas, 1)
	assert.Equal(t, "object", schemas["fetch:plain"]["type"])
}

func TestClient_Invoke(t *testing.T) {
	t.Parallel()

	client := newClient(t, newScaffolder(t))

	resp, err := client.Invoke(t.Context(), "fetch:plain", []byte(`{"url":"http://example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"url":"http://example.com"}`, string(resp.Body))

	resp, err = client.Invoke(t.Context(), "unknown", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no such action", string(resp.Body))
}

func TestClient_ActionsUpstreamStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := catalog.NewClient(discovery.Static{catalog.ServiceName: server.URL}, server.Client(), "")

	_, err := client.InputSchemas(t.Context())
	require.Error(t, err)
	assert.True(t, upstream.IsStatusError(err))
}

func TestClient_UnknownService(t *testing.T) {
	t.Parallel()

	client := catalog.NewClient(discovery.Static{}, http.DefaultClient, "")

	_, err := client.List(t.Context())
	require.ErrorIs(t, err, discovery.ErrServiceNotFound)
}

func TestClient_GenerateOpenAPI(t *testing.T) {
	t.Parallel()

	client := newClient(t, newScaffolder(t))

	document, err := client.GenerateOpenAPI(t.Context())
	require.NoError(t, err)
	require.NotNil(t, document)

	assert.Equal(t, "3.0.3", document["openapi"])
	assert.Equal(t, []any{map[string]any{"url": "http://host.docker.internal:7007"}}, document["servers"])

	paths, ok := document["paths"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, "/actions/fetch:plain")
	assert.Contains(t, paths, "/actions/debug:log")
}
