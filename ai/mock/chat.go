package mock

import (
	"context"
	"sync"
)

// ChatCall records the arguments of one Generate call.
type ChatCall struct {
	System string
	User   string
}

// MockChatModel is a test double for ai.ChatModel.
type MockChatModel struct {
	// GenerateFunc is called by Generate if set.
	// If nil, the user message is returned unchanged.
	GenerateFunc func(ctx context.Context, system, user string) (string, error)

	mu    sync.Mutex
	calls []ChatCall
}

// NewMockChatModel creates a mock chat model that echoes the user message.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

func (m *MockChatModel) Generate(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{System: system, User: user})
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, user)
	}
	return user, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call and false when there was none.
func (m *MockChatModel) LastCall() (ChatCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ChatCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and the custom function.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateFunc = nil
}
