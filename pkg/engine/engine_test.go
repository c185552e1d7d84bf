package engine_test

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dukex/swf-backend/pkg/engine"
	"github.com/dukex/swf-backend/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPIYAML = `openapi: 3.0.3
info:
  title: greeting
tags:
  - name: greeting
    description: Greets a person
  - name: onboarding
`

const greetingSource = `{"id":"greeting","name":"Greeting workflow","description":"Says hi","states":[{"name":"start","type":"inject"}]}`

func newClient(t *testing.T, handler http.Handler) *engine.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	host, portText, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	return engine.NewClient("http://"+host, port, server.Client())
}

func TestClient_Tags(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/q/openapi", r.URL.Path)
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(openAPIYAML))
	}))

	tags, err := client.Tags(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []engine.Tag{
		{Name: "greeting", Description: "Greets a person"},
		{Name: "onboarding"},
	}, tags)
}

func TestClient_TagsJSONWithoutTags(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"openapi":"3.0.3","paths":{}}`))
	}))

	tags, err := client.Tags(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestClient_TagsUpstreamStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "error document", body: `{"error":"warming up"}`},
		{name: "empty body", body: ""},
		{name: "tags not a list", body: `{"tags":"greeting"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(tt.body))
			}))

			tags, err := client.Tags(t.Context())
			require.NoError(t, err)
			assert.NotNil(t, tags)
			assert.Empty(t, tags)
		})
	}
}

func TestClient_TagsUnreachable(t *testing.T) {
	t.Parallel()

	client := engine.NewClient("http://127.0.0.1", 1, http.DefaultClient)

	_, err := client.Tags(t.Context())
	require.Error(t, err)
	assert.True(t, upstream.IsUnavailable(err))
}

func TestClient_Source(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/management/processes/greeting/source", r.URL.Path)
		_, _ = w.Write([]byte(greetingSource))
	}))

	source, err := client.Source(t.Context(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, "greeting", source.ID)
	assert.Equal(t, "Greeting workflow", source.Name)
	assert.Equal(t, "Says hi", source.Description)

	indented, err := source.Indented()
	require.NoError(t, err)
	assert.Contains(t, indented, "\n  \"description\": \"Says hi\"")
	assert.JSONEq(t, greetingSource, indented)
}

func TestClient_SourceUpstreamStatus(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"warming up"}`))
	}))

	source, err := client.Source(t.Context(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, "greeting", source.ID)
	assert.Empty(t, source.Name)
	assert.Empty(t, source.Description)
}

func TestSource_IndentedKeepsOrder(t *testing.T) {
	t.Parallel()

	source := &engine.Source{
		ID:  "greeting",
		Raw: []byte(`{"id":"greeting","version":"1.0","timeout":1e3,"states":[]}`),
	}

	indented, err := source.Indented()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": \"greeting\",\n  \"version\": \"1.0\",\n  \"timeout\": 1e3,\n  \"states\": []\n}", indented)
}

func TestClient_SourceNotJSON(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))

	_, err := client.Source(t.Context(), "greeting")
	require.Error(t, err)
}

func TestClient_Execute(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/greeting", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"John"}`, string(body))

		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad input"}`))
	}))

	resp, err := client.Execute(t.Context(), "greeting", []byte(`{"name":"John"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"bad input"}`, string(resp.Body))
}

func TestClient_Instances(t *testing.T) {
	t.Parallel()

	var queries []string

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql", r.URL.Path)

		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		queries = append(queries, payload["query"])

		_, _ = w.Write([]byte(`{"data":{"ProcessInstances":[]}}`))
	}))

	resp, err := client.Instances(t.Context())
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"ProcessInstances":[]}}`, string(resp.Body))

	_, err = client.Instance(t.Context(), `abc"} }`)
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "processId: {isNull: false}")
	assert.Contains(t, queries[1], `id: {equal: "abc\"} }" }`)
	assert.Contains(t, queries[1], "nodes { id, nodeId, type, name, enter, exit }")
}

func TestClient_HealthURL(t *testing.T) {
	t.Parallel()

	client := engine.NewClient("http://localhost", 8899, http.DefaultClient)

	assert.Equal(t, "http://localhost:8899", client.BaseURL())
	assert.Equal(t, "http://localhost:8899/q/health", client.HealthURL())
}
