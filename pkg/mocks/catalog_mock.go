package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCatalog is a mock implementation of schema.Catalog and file.OpenAPIGenerator.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) InputSchemas(ctx context.Context) (map[string]map[string]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]map[string]any), args.Error(1)
}

func (m *MockCatalog) GenerateOpenAPI(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}
