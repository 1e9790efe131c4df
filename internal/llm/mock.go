package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/outreach/internal/domain"
)

// MockClient is a configurable LLM client for local runs and tests.
type MockClient struct {
	TitleResponse string
	TitleError    error

	mu         sync.Mutex
	TitleCalls [][]domain.Message
}

func NewMockClient() *MockClient {
	return &MockClient{TitleResponse: "New conversation"}
}

func (m *MockClient) Title(ctx context.Context, conversation []domain.Message) (string, error) {
	m.mu.Lock()
	m.TitleCalls = append(m.TitleCalls, conversation)
	m.mu.Unlock()
	if m.TitleError != nil {
		return "", m.TitleError
	}
	return m.TitleResponse, nil
}
