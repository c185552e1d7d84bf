// Package discovery resolves the base URL of host services by logical name.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrServiceNotFound indicates no base URL is registered for a service.
var ErrServiceNotFound = errors.New("service not found")

// Discovery resolves a logical service name to a base URL.
type Discovery interface {
	BaseURL(ctx context.Context, service string) (string, error)
}

// Static resolves services from a fixed map.
type Static map[string]string

// BaseURL returns the configured base URL without a trailing slash.
func (s Static) BaseURL(_ context.Context, service string) (string, error) {
	url, ok := s[service]
	if !ok || url == "" {
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, service)
	}

	return strings.TrimRight(url, "/"), nil
}

// Redis resolves services from keys `{prefix}:{service}`.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed discovery.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(service string) string {
	return r.prefix + ":" + service
}

// BaseURL reads the registered base URL of a service.
func (r *Redis) BaseURL(ctx context.Context, service string) (string, error) {
	url, err := r.client.Get(ctx, r.key(service)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, service)
	}

	if err != nil {
		return "", fmt.Errorf("failed to resolve service %s: %w", service, err)
	}

	return strings.TrimRight(url, "/"), nil
}

// Register stores the base URL of a service.
func (r *Redis) Register(ctx context.Context, service, url string) error {
	if err := r.client.Set(ctx, r.key(service), url, 0).Err(); err != nil {
		return fmt.Errorf("failed to register service %s: %w", service, err)
	}

	return nil
}

// Chain tries each discovery in order and returns the first match.
type Chain []Discovery

// BaseURL returns the first resolved base URL. Errors other than
// ErrServiceNotFound stop the chain.
func (c Chain) BaseURL(ctx context.Context, service string) (string, error) {
	for _, d := range c {
		url, err := d.BaseURL(ctx, service)
		if err == nil {
			return url, nil
		}

		if !errors.Is(err, ErrServiceNotFound) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: %s", ErrServiceNotFound, service)
}
