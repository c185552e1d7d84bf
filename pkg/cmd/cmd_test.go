package cmd_test

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/swf-backend/pkg/cmd"
	"github.com/dukex/swf-backend/pkg/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	bus, err := cmd.NewEventBus("gochannel", nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, bus.PublishAvailable(t.Context()))
	require.NoError(t, bus.Close())

	_, err = cmd.NewEventBus("kafka", nil, testLogger())
	require.Error(t, err)

	_, err = cmd.NewEventBus("nats", nil, testLogger())
	require.Error(t, err)
}

func TestNewPersistence_DirLister(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "specs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "specs", "petstore.json"), []byte(`{}`), 0o644))

	catalog := &mocks.MockCatalog{}
	store := cmd.NewPersistence(root, "dir", nil, catalog, http.DefaultClient, testLogger())

	specs, err := store.ListSpecs(t.Context())
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, filepath.Join(root, "specs", "petstore.json"), specs[0].Path)
}
