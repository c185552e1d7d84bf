package upstream_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/swf-backend/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(r.Method + " " + r.Header.Get("Content-Type") + " " + string(body)))
	}))
	defer server.Close()

	resp, err := upstream.Do(t.Context(), server.Client(), http.MethodPost, server.URL, []byte(`{"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.ContentType)
	assert.Equal(t, `POST application/json {"a":1}`, string(resp.Body))
	assert.False(t, resp.OK())

	err = upstream.Expect2xx(resp, server.URL)
	require.Error(t, err)
	assert.True(t, upstream.IsStatusError(err))
}

func TestDo_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := upstream.Do(t.Context(), http.DefaultClient, http.MethodGet, "http://127.0.0.1:1/q/health", nil)
	require.Error(t, err)
	assert.True(t, upstream.IsUnavailable(err))
}
