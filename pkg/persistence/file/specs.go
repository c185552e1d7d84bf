package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/dukex/swf-backend/pkg/persistence"
)

const (
	// SpecsFolder holds specification documents under the resource root.
	SpecsFolder = "specs"

	// ActionsOpenAPIFile is the OpenAPI document describing the host actions.
	ActionsOpenAPIFile = SpecsFolder + "/actions-openapi.json"
)

// DefaultSpecFiles is the declared set of specification files.
var DefaultSpecFiles = []string{ActionsOpenAPIFile}

// FixedLister lists a pre-declared set of specification files.
type FixedLister []string

// List returns the declared paths.
func (l FixedLister) List(_ context.Context) ([]string, error) {
	return l, nil
}

// DirLister lists every JSON document in a directory below the resource root.
type DirLister struct {
	Root string
	Dir  string
}

// NewDirLister lists `{root}/specs/*.json`.
func NewDirLister(root string) *DirLister {
	return &DirLister{Root: root, Dir: SpecsFolder}
}

// List returns root-relative paths of the JSON files in the directory.
func (l *DirLister) List(_ context.Context) ([]string, error) {
	dir := filepath.Join(l.Root, l.Dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	matches, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list specification files: %w", err)
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		paths = append(paths, path.Join(l.Dir, match))
	}

	return paths, nil
}

// ListSpecs reads and parses every listed specification file. Any unreadable
// or malformed file fails the whole listing.
func (p *Persistence) ListSpecs(ctx context.Context) ([]persistence.SpecFile, error) {
	relativePaths, err := p.lister.List(ctx)
	if err != nil {
		return nil, persistence.NewResourceError("ListSpecs", p.root, fmt.Errorf("%w: %w", persistence.ErrSpecLoadFailure, err))
	}

	specs := make([]persistence.SpecFile, 0, len(relativePaths))

	for _, relativePath := range relativePaths {
		fullPath := filepath.Join(p.root, filepath.FromSlash(relativePath))

		body, err := os.ReadFile(fullPath)
		if err != nil {
			return nil, persistence.NewResourceError("ListSpecs", relativePath, fmt.Errorf("%w: %w", persistence.ErrSpecLoadFailure, err))
		}

		var content any
		if err := json.Unmarshal(body, &content); err != nil {
			return nil, persistence.NewResourceError("ListSpecs", relativePath, fmt.Errorf("%w: %w", persistence.ErrSpecLoadFailure, err))
		}

		specs = append(specs, persistence.SpecFile{Path: fullPath, Content: content})
	}

	return specs, nil
}

// SaveActionsOpenAPI regenerates the actions OpenAPI document. An empty
// catalog leaves the existing file untouched.
func (p *Persistence) SaveActionsOpenAPI(ctx context.Context) error {
	document, err := p.openAPI.GenerateOpenAPI(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate actions OpenAPI document: %w", err)
	}

	if document == nil {
		return nil
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal actions OpenAPI document: %w", err)
	}

	target := filepath.Join(p.root, filepath.FromSlash(ActionsOpenAPIFile))
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return persistence.NewResourceError("SaveActionsOpenAPI", ActionsOpenAPIFile, err)
	}

	//nolint:gosec // the engine resolves function operations against this file
	if err := os.WriteFile(target, data, filePerm); err != nil {
		return persistence.NewResourceError("SaveActionsOpenAPI", ActionsOpenAPIFile, err)
	}

	return nil
}
