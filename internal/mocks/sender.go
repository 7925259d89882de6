package mocks

import (
	"context"
	"encoding/json"

	"github.com/phrazzld/syncdash/internal/apiclient"
	"github.com/stretchr/testify/mock"
)

// MockSender is a mock of task.Sender for use with testify/mock.
type MockSender struct {
	mock.Mock
}

// Send is a mock implementation of task.Sender.Send
func (m *MockSender) Send(ctx context.Context, d apiclient.Descriptor) (json.RawMessage, error) {
	args := m.Called(ctx, d)
	if body, ok := args.Get(0).(json.RawMessage); ok {
		return body, args.Error(1)
	}
	return nil, args.Error(1)
}

// SenderFunc adapts a function to task.Sender. Use it when a test needs to
// block or count calls instead of asserting expectations.
type SenderFunc func(ctx context.Context, d apiclient.Descriptor) (json.RawMessage, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, d apiclient.Descriptor) (json.RawMessage, error) {
	return f(ctx, d)
}
