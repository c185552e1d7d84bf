package supervisor_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/swf-backend/pkg/supervisor"
	"github.com/dukex/swf-backend/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotReady = errors.New("not ready")

func failingFor(n int) (supervisor.HealthCheck, *int) {
	calls := 0

	return func(context.Context) error {
		calls++
		if calls <= n {
			return errNotReady
		}

		return nil
	}, &calls
}

func TestPoll_SucceedsOnTenthAttempt(t *testing.T) {
	t.Parallel()

	check, calls := failingFor(9)

	attempts, err := supervisor.Poll(t.Context(), check, time.Millisecond, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, attempts)
	assert.Equal(t, 10, *calls)
}

func TestPoll_ExhaustsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	check, calls := failingFor(1000)

	attempts, err := supervisor.Poll(t.Context(), check, time.Millisecond, 10)
	require.ErrorIs(t, err, errNotReady)
	assert.Equal(t, 10, attempts)
	assert.Equal(t, 10, *calls)
}

func TestPoll_ImmediateSuccess(t *testing.T) {
	t.Parallel()

	check, _ := failingFor(0)

	attempts, err := supervisor.Poll(t.Context(), check, time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPoll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	check, _ := failingFor(1000)

	attempts, err := supervisor.Poll(ctx, check, time.Hour, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestHTTPHealthCheck(t *testing.T) {
	t.Parallel()

	healthy := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/q/health", r.URL.Path)

		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(`{"status":"UP"}`))
	}))
	defer server.Close()

	check := supervisor.HTTPHealthCheck(server.Client(), server.URL+"/q/health")

	err := check(t.Context())
	require.Error(t, err)
	assert.True(t, upstream.IsStatusError(err))

	healthy = true
	require.NoError(t, check(t.Context()))

	unreachable := supervisor.HTTPHealthCheck(http.DefaultClient, "http://127.0.0.1:1/q/health")
	assert.True(t, upstream.IsUnavailable(unreachable(t.Context())))
}
