package llm

import (
	"context"
	"sync"
)

// Call records one invocation made against a MockClient.
type Call struct {
	SystemPrompt string
	UserPrompt   string
	Stream       bool
	Retries      int
}

// MockClient is a test double for Client. It records every call it
// receives and, by default, returns replies from Replies in order; once
// Replies is exhausted it returns DefaultReply. GenerateFunc, when set,
// overrides this behavior entirely. Safe for concurrent use, since a
// scheduler may run several jobs against the same client at once.
type MockClient struct {
	mu    sync.Mutex
	Calls []Call

	Replies      []string
	DefaultReply string
	Err          error

	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string, stream bool) (string, error)
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, systemPrompt, userPrompt string, stream bool) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Call{SystemPrompt: systemPrompt, UserPrompt: userPrompt, Stream: stream})
	idx := len(m.Calls) - 1
	genFunc := m.GenerateFunc
	err := m.Err
	var reply string
	if idx < len(m.Replies) {
		reply = m.Replies[idx]
	} else {
		reply = m.DefaultReply
	}
	m.mu.Unlock()

	if genFunc != nil {
		return genFunc(ctx, systemPrompt, userPrompt, stream)
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// GenerateWithRetry implements Client. It does not itself retry; it
// records the requested retry count and delegates straight to Generate,
// since mock failures are deterministic and retrying them changes nothing.
func (m *MockClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, stream bool, retries int) (string, error) {
	reply, err := m.Generate(ctx, systemPrompt, userPrompt, stream)

	m.mu.Lock()
	if len(m.Calls) > 0 {
		m.Calls[len(m.Calls)-1].Retries = retries
	}
	m.mu.Unlock()

	return reply, err
}

// CallCount returns the number of calls recorded so far, safe for
// concurrent use alongside Generate/GenerateWithRetry.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
