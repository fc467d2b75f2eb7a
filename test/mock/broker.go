// test/mock/broker.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kaizen-platform/gatekeeper/model"
)

// MockConsensusBroker is a mock implementation of gateway.ConsensusBroker
type MockConsensusBroker struct {
	mock.Mock
}

func (m *MockConsensusBroker) Evaluate(ctx context.Context, payload map[string]interface{}) (model.ConsensusResult, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(model.ConsensusResult), args.Error(1)
}
