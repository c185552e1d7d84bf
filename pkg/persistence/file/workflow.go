package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dukex/swf-backend/pkg/otelhelper"
	"github.com/dukex/swf-backend/pkg/persistence"
	"github.com/dukex/swf-backend/pkg/schema"
	"github.com/dukex/swf-backend/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Save writes the derived schemas of a definition and then the definition
// itself, in the format selected by the item's URI.
func (p *Persistence) Save(ctx context.Context, item *workflow.Item) (*workflow.Item, error) {
	if item == nil || item.Definition == nil {
		return nil, fmt.Errorf("%w: definition is required", workflow.ErrParseFailure)
	}

	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "persistence.save",
		attribute.String(otelhelper.WorkflowIDKey, item.Definition.ID),
		attribute.String(otelhelper.ResourceKey, item.URI),
	)
	defer span.End()

	format, err := workflow.FormatFromResourceID(item.URI)
	if err != nil {
		return nil, otelhelper.Record(span, err)
	}

	resource := workflow.ResourceName(item.Definition.ID, format)
	if err := checkResourceID(resource); err != nil {
		return nil, otelhelper.Record(span, persistence.NewResourceError("Save", resource, err))
	}

	dataInputSchema, err := p.generator.Generate(ctx, item.Definition)
	if err != nil {
		return nil, otelhelper.Record(span, fmt.Errorf("failed to generate data input schema for %s: %w", item.Definition.ID, err))
	}

	var staged *stagedSchemas

	if dataInputSchema != nil {
		dataInputSchema.AssignIDs(schema.Folder)

		staged, err = p.stageSchemas(ctx, dataInputSchema.Files())
		if err != nil {
			return nil, otelhelper.Record(span, persistence.NewResourceError("Save", resource, err))
		}
		defer staged.discard()

		item.Definition.SetDataInputSchemaPath(dataInputSchema.CompositionPath(schema.Folder))
	}

	data, err := workflow.Serialize(item.Definition, format)
	if err != nil {
		return nil, otelhelper.Record(span, err)
	}

	committed := 0

	if staged != nil {
		if err := staged.commit(filepath.Join(p.root, schema.Folder)); err != nil {
			return nil, otelhelper.Record(span, persistence.NewResourceError("Save", resource, err))
		}

		committed = len(staged.committed)
	}

	if err := os.MkdirAll(p.root, dirPerm); err != nil {
		staged.rollback()

		return nil, otelhelper.Record(span, persistence.NewResourceError("Save", resource, err))
	}

	target := filepath.Join(p.root, resource)

	//nolint:gosec // definitions are read by the engine container
	if err := os.WriteFile(target, data, filePerm); err != nil {
		staged.rollback()

		return nil, otelhelper.Record(span, persistence.NewResourceError("Save", resource, err))
	}

	p.logger.InfoContext(ctx, "Saved workflow definition",
		"resource", resource,
		"schemas", committed,
	)

	return item, nil
}

// SaveFromURL fetches a definition and stores it under the final path
// segment of the URL.
func (p *Persistence) SaveFromURL(ctx context.Context, rawURL string) (*workflow.Item, error) {
	source, err := url.Parse(rawURL)
	if err != nil {
		return nil, persistence.NewResourceError("SaveFromURL", rawURL, fmt.Errorf("%w: %w", persistence.ErrFetchFailure, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.String(), nil)
	if err != nil {
		return nil, persistence.NewResourceError("SaveFromURL", rawURL, fmt.Errorf("%w: %w", persistence.ErrFetchFailure, err))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, persistence.NewResourceError("SaveFromURL", rawURL, fmt.Errorf("%w: %w", persistence.ErrFetchFailure, err))
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, persistence.NewResourceError("SaveFromURL", rawURL, fmt.Errorf("%w: status %d", persistence.ErrFetchFailure, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, persistence.NewResourceError("SaveFromURL", rawURL, fmt.Errorf("%w: %w", persistence.ErrFetchFailure, err))
	}

	definition, err := workflow.Deserialize(body)
	if err != nil {
		return nil, persistence.NewResourceError("SaveFromURL", rawURL, err)
	}

	return p.Save(ctx, &workflow.Item{
		URI:        path.Base(source.Path),
		Definition: definition,
	})
}

// Get reads a stored definition.
func (p *Persistence) Get(_ context.Context, resourceID string) (*workflow.Definition, error) {
	if err := checkResourceID(resourceID); err != nil {
		return nil, persistence.NewResourceError("Get", resourceID, err)
	}

	if _, err := workflow.FormatFromResourceID(resourceID); err != nil {
		return nil, persistence.NewResourceError("Get", resourceID, err)
	}

	body, err := os.ReadFile(filepath.Join(p.root, resourceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewResourceError("Get", resourceID, persistence.ErrNotFound)
		}

		return nil, persistence.NewResourceError("Get", resourceID, err)
	}

	definition, err := workflow.Deserialize(body)
	if err != nil {
		return nil, persistence.NewResourceError("Get", resourceID, err)
	}

	return definition, nil
}

// Delete removes a stored definition. Deleting a missing resource succeeds;
// names without a workflow suffix are rejected so no other file under the
// root can be removed.
func (p *Persistence) Delete(_ context.Context, resourceID string) error {
	if err := checkResourceID(resourceID); err != nil {
		return persistence.NewResourceError("Delete", resourceID, err)
	}

	if !workflow.IsResourceID(resourceID) {
		return persistence.NewResourceError("Delete", resourceID, persistence.ErrInvalidResource)
	}

	err := os.Remove(filepath.Join(p.root, resourceID))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewResourceError("Delete", resourceID, err)
	}

	return nil
}

func checkResourceID(resourceID string) error {
	if resourceID == "" || resourceID == "." || resourceID == ".." ||
		strings.ContainsAny(resourceID, `/\`) || strings.HasPrefix(resourceID, ".staging-") {
		return persistence.ErrInvalidResource
	}

	return nil
}

// stagedSchemas holds schema files written to a private directory under the
// root until the definition is ready to be written. Files replaced by a
// commit are parked in the backup directory until the save completes.
type stagedSchemas struct {
	dir       string
	files     []string
	committed []string
	backups   map[string]string
}

const backupDir = ".backup"

func (p *Persistence) stageSchemas(ctx context.Context, files []schema.File) (*stagedSchemas, error) {
	dir := filepath.Join(p.root, ".staging-"+uuid.NewString())
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	staged := &stagedSchemas{
		dir:     dir,
		files:   make([]string, 0, len(files)),
		backups: make(map[string]string),
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, file := range files {
		staged.files = append(staged.files, file.FileName)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := json.MarshalIndent(file.JSONSchema, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal schema %s: %w", file.FileName, err)
			}

			//nolint:gosec // schemas are read by the engine container
			return os.WriteFile(filepath.Join(dir, file.FileName), data, filePerm)
		})
	}

	// Every schema write must finish before anything else touches the root.
	if err := g.Wait(); err != nil {
		staged.discard()

		return nil, fmt.Errorf("failed to write schema files: %w", err)
	}

	return staged, nil
}

// commit moves every staged file into target, parking any file it replaces.
// A failure part way rolls back what was already moved.
func (s *stagedSchemas) commit(target string) error {
	if err := os.MkdirAll(target, dirPerm); err != nil {
		return fmt.Errorf("failed to create schemas directory: %w", err)
	}

	backups := filepath.Join(s.dir, backupDir)
	if err := os.MkdirAll(backups, dirPerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	for _, name := range s.files {
		destination := filepath.Join(target, name)

		if _, err := os.Stat(destination); err == nil {
			backup := filepath.Join(backups, name)
			if err := os.Rename(destination, backup); err != nil {
				s.rollback()

				return fmt.Errorf("failed to back up schema %s: %w", name, err)
			}

			s.backups[destination] = backup
		}

		if err := os.Rename(filepath.Join(s.dir, name), destination); err != nil {
			s.rollback()

			return fmt.Errorf("failed to move schema %s: %w", name, err)
		}

		s.committed = append(s.committed, destination)
	}

	return nil
}

// rollback removes committed files and puts replaced ones back.
func (s *stagedSchemas) rollback() {
	if s == nil {
		return
	}

	for _, p := range s.committed {
		_ = os.Remove(p)
	}

	for destination, backup := range s.backups {
		_ = os.Rename(backup, destination)
	}

	s.committed = nil
	s.backups = make(map[string]string)
}

func (s *stagedSchemas) discard() {
	_ = os.RemoveAll(s.dir)
}
