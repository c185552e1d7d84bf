package mocks

import (
	"context"

	"github.com/dukex/swf-backend/pkg/persistence"
	"github.com/dukex/swf-backend/pkg/workflow"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Save(ctx context.Context, item *workflow.Item) (*workflow.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*workflow.Item), args.Error(1)
}

func (m *MockPersistence) SaveFromURL(ctx context.Context, url string) (*workflow.Item, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*workflow.Item), args.Error(1)
}

func (m *MockPersistence) Get(ctx context.Context, resourceID string) (*workflow.Definition, error) {
	args := m.Called(ctx, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*workflow.Definition), args.Error(1)
}

func (m *MockPersistence) Delete(ctx context.Context, resourceID string) error {
	args := m.Called(ctx, resourceID)

	return args.Error(0)
}

func (m *MockPersistence) ListSpecs(ctx context.Context) ([]persistence.SpecFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]persistence.SpecFile), args.Error(1)
}

func (m *MockPersistence) SaveActionsOpenAPI(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

var _ persistence.Persistence = (*MockPersistence)(nil)
