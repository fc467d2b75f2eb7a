// test/mock/executor.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kaizen-platform/gatekeeper/model"
)

// MockScriptExecutor is a mock implementation of gateway.ScriptExecutor
type MockScriptExecutor struct {
	mock.Mock
}

func (m *MockScriptExecutor) Execute(ctx context.Context, script string) (model.SandboxResult, error) {
	args := m.Called(ctx, script)
	return args.Get(0).(model.SandboxResult), args.Error(1)
}

// MockRunner is a mock implementation of sandbox.Runner; tests use it to
// assert a process was never spawned for a rejected script.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, script string) (model.SandboxResult, error) {
	args := m.Called(ctx, script)
	return args.Get(0).(model.SandboxResult), args.Error(1)
}
