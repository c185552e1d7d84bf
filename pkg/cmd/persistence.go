package cmd

import (
	"log/slog"
	"net/http"

	"github.com/dukex/swf-backend/pkg/persistence/file"
)

// NewPersistence creates the file store with the spec lister named by lister.
func NewPersistence(
	root string,
	lister string,
	generator file.SchemaGenerator,
	openAPI file.OpenAPIGenerator,
	client *http.Client,
	logger *slog.Logger,
) *file.Persistence {
	opts := []file.Option{file.WithHTTPClient(client)}

	if lister == "dir" {
		opts = append(opts, file.WithLister(file.NewDirLister(root)))
	}

	return file.NewPersistence(root, generator, openAPI, logger, opts...)
}
