package supervisor

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukex/swf-backend/pkg/upstream"
)

// HealthCheck performs one readiness probe.
type HealthCheck func(ctx context.Context) error

// HTTPHealthCheck probes url; a transport error or non-2xx status fails the attempt.
func HTTPHealthCheck(client *http.Client, url string) HealthCheck {
	return func(ctx context.Context) error {
		resp, err := upstream.Do(ctx, client, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		return upstream.Expect2xx(resp, url)
	}
}

// Poll runs check up to maxAttempts times, waiting interval after each
// failure. It returns the number of attempts made and the last error.
func Poll(ctx context.Context, check HealthCheck, interval time.Duration, maxAttempts int) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)),
		ctx,
	)

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++

		return check(ctx)
	}, policy)

	return attempts, err
}
