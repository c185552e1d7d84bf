// Package file provides the file-system implementation of the workflow
// definition store.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/dukex/swf-backend/pkg/otelhelper"
	"github.com/dukex/swf-backend/pkg/persistence"
	"github.com/dukex/swf-backend/pkg/schema"
	"github.com/dukex/swf-backend/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// SchemaGenerator derives the data-input schemas of a definition.
type SchemaGenerator interface {
	Generate(ctx context.Context, def *workflow.Definition) (*schema.DataInputSchema, error)
}

// OpenAPIGenerator produces the OpenAPI document describing the host actions.
type OpenAPIGenerator interface {
	GenerateOpenAPI(ctx context.Context) (map[string]any, error)
}

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root      string
	generator SchemaGenerator
	openAPI   OpenAPIGenerator
	lister    persistence.ResourceLister
	client    *http.Client
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option customizes a file Persistence.
type Option func(*Persistence)

// WithLister replaces the fixed specification list.
func WithLister(lister persistence.ResourceLister) Option {
	return func(p *Persistence) {
		p.lister = lister
	}
}

// WithHTTPClient sets the client used to fetch remote definitions.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Persistence) {
		p.client = client
	}
}

// NewPersistence creates a store rooted at root.
func NewPersistence(
	root string,
	generator SchemaGenerator,
	openAPI OpenAPIGenerator,
	logger *slog.Logger,
	opts ...Option,
) *Persistence {
	p := &Persistence{
		root:      strings.Replace(root, "file://", "", 1),
		generator: generator,
		openAPI:   openAPI,
		lister:    FixedLister(DefaultSpecFiles),
		client:    http.DefaultClient,
		logger:    logger.With("module", "file_persistence"),
		tracer:    otelhelper.Tracer("swf-backend/persistence"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Root returns the resource root directory.
func (p *Persistence) Root() string {
	return p.root
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("resource root %s is not a directory", p.root)
	}

	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
