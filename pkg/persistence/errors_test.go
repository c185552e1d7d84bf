package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/swf-backend/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		notFound := persistence.NewResourceError("Get", "greeting.sw.json", persistence.ErrNotFound)
		fetch := persistence.NewResourceError("SaveFromURL", "https://example.com/a.sw.json", fmt.Errorf("%w: status 500", persistence.ErrFetchFailure))

		assert.True(t, persistence.IsNotFound(notFound))
		assert.True(t, persistence.IsFetchFailure(fetch))
		assert.False(t, persistence.IsSpecLoadFailure(fetch))
		assert.False(t, persistence.IsInvalidResource(notFound))

		assert.True(t, errors.Is(notFound, persistence.ErrNotFound))
	})

	t.Run("resource error contains context", func(t *testing.T) {
		err := persistence.NewResourceError("Delete", "../etc.sw.json", persistence.ErrInvalidResource)

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "../etc.sw.json")
		assert.Contains(t, err.Error(), "invalid workflow resource")
	})

	t.Run("wrapped resource error unwraps", func(t *testing.T) {
		err := fmt.Errorf("listing: %w", persistence.NewResourceError("ListSpecs", "specs/x.json", persistence.ErrSpecLoadFailure))

		var resourceErr *persistence.ResourceError
		assert.ErrorAs(t, err, &resourceErr)
		assert.Equal(t, "ListSpecs", resourceErr.Op)
		assert.True(t, persistence.IsSpecLoadFailure(err))
	})
}
