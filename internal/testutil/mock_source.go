package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
)

// MockProtocolSource is a testify mock of the protocol read port.
type MockProtocolSource struct {
	mock.Mock
}

func (m *MockProtocolSource) ListProtocols(ctx context.Context) ([]protocol.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]protocol.Record), args.Error(1)
}
