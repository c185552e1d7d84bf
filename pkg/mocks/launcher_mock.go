package mocks

import (
	"context"

	"github.com/dukex/swf-backend/pkg/supervisor"
	"github.com/stretchr/testify/mock"
)

// MockLauncher is a mock implementation of supervisor.Launcher.
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context, spec supervisor.LaunchSpec) (*supervisor.LaunchResult, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*supervisor.LaunchResult), args.Error(1)
}

// MockCommandRunner is a mock implementation of supervisor.CommandRunner.
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	called := m.Called(ctx, name, args)

	return called.String(0), called.String(1), called.Error(2)
}
