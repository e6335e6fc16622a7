package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"motion-server/internal/ai"
)

// Client is a testify mock of ai.Client.
type Client struct {
	mock.Mock
}

func (m *Client) Generate(ctx context.Context, purpose string, systemPrompt string, messages []ai.Message, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	args := m.Called(ctx, purpose, systemPrompt, messages, params)
	return args.String(0), args.Get(1).(ai.UsageInfo), args.Error(2)
}

func (m *Client) Model() string {
	args := m.Called()
	return args.String(0)
}
