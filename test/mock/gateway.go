// test/mock/gateway.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kaizen-platform/gatekeeper/gateway"
	"github.com/kaizen-platform/gatekeeper/model"
)

// MockGatewayService is a mock implementation of controller.GatewayService
type MockGatewayService struct {
	mock.Mock
}

func (m *MockGatewayService) Process(ctx context.Context, req *model.ExecRequest) gateway.Outcome {
	args := m.Called(ctx, req)
	return args.Get(0).(gateway.Outcome)
}
