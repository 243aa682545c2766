package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

// MockLLM is a deterministic gateway for development and tests. By default it
// echoes the last user message.
type MockLLM struct {
	// Reply computes the answer; nil means echo.
	Reply func(req domain.CompletionRequest) string
	// ChunkSize is the number of runes per streamed increment (default 4).
	ChunkSize int
	// Err fails every call before any output.
	Err error
	// FailAfter, when > 0 and StreamErr is set, fails a stream after that many increments.
	FailAfter int
	StreamErr error
	// TokensPerCall is reported as usage on Complete.
	TokensPerCall int

	mu       sync.Mutex
	requests []domain.CompletionRequest
}

func NewMockLLM() *MockLLM {
	return &MockLLM{TokensPerCall: 10}
}

// Requests returns every request received so far.
func (m *MockLLM) Requests() []domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CompletionRequest(nil), m.requests...)
}

func (m *MockLLM) record(req domain.CompletionRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.Messages = append([]domain.Message(nil), req.Messages...)
	m.requests = append(m.requests, req)
}

func (m *MockLLM) reply(req domain.CompletionRequest) string {
	if m.Reply != nil {
		return m.Reply(req)
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			return fmt.Sprintf("You said: %s", req.Messages[i].Content)
		}
	}
	return "Hi!"
}

func (m *MockLLM) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	m.record(req)
	if err := ctx.Err(); err != nil {
		return nil, &domain.GatewayError{Provider: "mock", Op: "complete", Err: err}
	}
	if m.Err != nil {
		return nil, &domain.GatewayError{Provider: "mock", Op: "complete", Err: m.Err}
	}
	return &domain.Completion{
		Text:  m.reply(req),
		Usage: &domain.Usage{TotalTokens: m.TokensPerCall},
	}, nil
}

func (m *MockLLM) Stream(ctx context.Context, req domain.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.record(req)
		if m.Err != nil {
			yield("", &domain.GatewayError{Provider: "mock", Op: "stream", Err: m.Err})
			return
		}

		size := m.ChunkSize
		if size <= 0 {
			size = 4
		}
		runes := []rune(m.reply(req))

		var b strings.Builder
		sent := 0
		for start := 0; start < len(runes); start += size {
			if err := ctx.Err(); err != nil {
				yield("", &domain.GatewayError{Provider: "mock", Op: "stream", Err: err})
				return
			}
			if m.FailAfter > 0 && m.StreamErr != nil && sent == m.FailAfter {
				yield("", &domain.GatewayError{Provider: "mock", Op: "stream", Err: m.StreamErr})
				return
			}
			end := min(start+size, len(runes))
			b.WriteString(string(runes[start:end]))
			sent++
			if !yield(b.String(), nil) {
				return
			}
		}
	}
}
