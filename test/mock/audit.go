// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kaizen-platform/gatekeeper/audit"
)

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) LogDecision(ctx context.Context, record audit.DecisionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepository) QueryDecisions(ctx context.Context, from, to time.Time, actorDID string) ([]audit.DecisionRecord, error) {
	args := m.Called(ctx, from, to, actorDID)
	return args.Get(0).([]audit.DecisionRecord), args.Error(1)
}
