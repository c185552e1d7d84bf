// Package persistence provides the storage abstraction for workflow
// definitions, their derived schemas and the known specification files.
package persistence

import (
	"context"

	"github.com/dukex/swf-backend/pkg/workflow"
)

// Persistence stores workflow definitions under a resource root.
type Persistence interface {
	Save(ctx context.Context, item *workflow.Item) (*workflow.Item, error)
	SaveFromURL(ctx context.Context, url string) (*workflow.Item, error)
	Get(ctx context.Context, resourceID string) (*workflow.Definition, error)
	Delete(ctx context.Context, resourceID string) error
	ListSpecs(ctx context.Context) ([]SpecFile, error)
	SaveActionsOpenAPI(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// SpecFile is a parsed specification document and where it was read from.
type SpecFile struct {
	Path    string `json:"path"`
	Content any    `json:"content"`
}

// ResourceLister enumerates specification files relative to the resource root.
type ResourceLister interface {
	List(ctx context.Context) ([]string, error)
}
