package conversation

import (
	"context"
	"iter"
	"time"

	"github.com/PabloGalante/groq-chat/internal/domain"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

// ErrorMarker prefixes an assistant turn that carries a gateway failure.
const ErrorMarker = "❌ Error: "

const (
	connectionTestPrompt    = "Connection test"
	connectionTestMaxTokens = 10
)

// SendUserMessage appends text as a user turn, asks the gateway for a
// completion over the whole history and appends the answer as an assistant
// turn. It blocks until the gateway call ends.
//
// When streaming is enabled and onUpdate is non-nil the answer is streamed and
// every cumulative value is passed to onUpdate; the last one equals the
// returned text. Gateway failures never surface as errors: the failure text,
// prefixed with ErrorMarker, becomes the assistant turn. The history always
// grows by exactly two messages.
//
// Empty text is not rejected; callers filter it.
func (s *Session) SendUserMessage(ctx context.Context, text string, onUpdate func(string)) string {
	s.turn.Lock()
	defer s.turn.Unlock()

	ctx = observability.WithSessionID(ctx, string(s.id))
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	// user and assistant roles are always valid
	_ = s.history.Append(domain.Message{Role: domain.RoleUser, Content: text})
	req := domain.CompletionRequest{
		Model:       s.modelKey,
		Messages:    s.history.Messages(),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}
	streaming := s.streaming && onUpdate != nil
	s.mu.Unlock()

	log.Info("sending message",
		"model", req.Model,
		"messages", len(req.Messages),
		"streaming", streaming,
	)
	start := time.Now()

	var (
		reply string
		usage *domain.Usage
		err   error
	)
	if streaming {
		reply, err = s.streamReply(ctx, req, onUpdate)
	} else {
		reply, usage, err = s.completeReply(ctx, req)
	}
	if err != nil {
		log.Error("completion failed", "error", err)
	}

	s.mu.Lock()
	_ = s.history.Append(domain.Message{Role: domain.RoleAssistant, Content: reply})
	if usage != nil {
		s.totalTokens += usage.TotalTokens
	}
	total := s.totalTokens
	s.mu.Unlock()

	log.Info("send message completed",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"reply_len", len(reply),
		"total_tokens", total,
	)
	return reply
}

// Stream is the lazy form of SendUserMessage. Nothing is sent until the
// sequence is ranged over; ranging performs exactly one send and yields the
// cumulative response. The last value yielded equals the assistant turn that
// was appended. With streaming disabled a single value is yielded.
//
// Breaking out of the loop stops delivery only: the request still runs to
// completion and its answer is still recorded.
func (s *Session) Stream(ctx context.Context, text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var (
			forward = true
			last    string
			sent    bool
		)
		final := s.SendUserMessage(ctx, text, func(partial string) {
			if !forward {
				return
			}
			last, sent = partial, true
			forward = yield(partial)
		})
		if forward && (!sent || last != final) {
			yield(final)
		}
	}
}

// TestConnection sends a tiny prompt to the default model outside the
// conversation. History and token counters are left alone.
func (s *Session) TestConnection(ctx context.Context) (string, error) {
	req := domain.CompletionRequest{
		Model:     s.catalog.DefaultModel(),
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: connectionTestPrompt}},
		MaxTokens: connectionTestMaxTokens,
	}
	res, err := s.gateway.Complete(ctx, req)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("connection test failed", "error", err)
		return "", err
	}
	return res.Text, nil
}

func (s *Session) completeReply(ctx context.Context, req domain.CompletionRequest) (string, *domain.Usage, error) {
	res, err := s.gateway.Complete(ctx, req)
	if err != nil {
		return errorReply("", err), nil, err
	}
	return res.Text, res.Usage, nil
}

func (s *Session) streamReply(ctx context.Context, req domain.CompletionRequest, onUpdate func(string)) (string, error) {
	var text string
	for partial, err := range s.gateway.Stream(ctx, req) {
		if err != nil {
			text = errorReply(text, err)
			onUpdate(text)
			return text, err
		}
		text = partial
		onUpdate(text)
	}
	return text, nil
}

// errorReply renders a failure as conversation text. Text already streamed
// is kept in front so the value only ever grows.
func errorReply(partial string, err error) string {
	msg := ErrorMarker + err.Error()
	if partial == "" {
		return msg
	}
	return partial + "\n\n" + msg
}
