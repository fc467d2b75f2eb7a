// test/mock/attestor.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAttestor is a mock implementation of gateway.Attestor
type MockAttestor struct {
	mock.Mock
}

func (m *MockAttestor) Attest(ctx context.Context, payload, result map[string]interface{}) (string, bool) {
	args := m.Called(ctx, payload, result)
	return args.String(0), args.Bool(1)
}

func (m *MockAttestor) AttestBlocked(ctx context.Context, payload map[string]interface{}, reason string) (string, bool) {
	args := m.Called(ctx, payload, reason)
	return args.String(0), args.Bool(1)
}
