package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIConfig configures an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	// Provider names the endpoint in errors and logs ("groq", "openai").
	Provider   string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGateway implements domain.CompletionGateway against any
// OpenAI-compatible chat completions API. Groq is the default.
type OpenAIGateway struct {
	client   *openai.Client
	provider string
}

func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai gateway: %w", domain.ErrMissingCredential)
	}
	if cfg.Provider == "" {
		cfg.Provider = "groq"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Provider == "groq" {
		clientCfg.BaseURL = GroqBaseURL
	}
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIGateway{
		client:   openai.NewClientWithConfig(clientCfg),
		provider: cfg.Provider,
	}, nil
}

// Complete implements domain.CompletionGateway.
func (g *OpenAIGateway) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	res, err := g.client.CreateChatCompletion(ctx, toOpenAIRequest(req))
	if err != nil {
		return nil, g.wrap("chat completion", err)
	}
	if len(res.Choices) == 0 {
		return nil, g.wrap("chat completion", domain.ErrEmptyResponse)
	}

	return &domain.Completion{
		Text:  res.Choices[0].Message.Content,
		Usage: &domain.Usage{TotalTokens: res.Usage.TotalTokens},
	}, nil
}

// Stream implements domain.CompletionGateway. Deltas are accumulated so every
// value is the whole response so far.
func (g *OpenAIGateway) Stream(ctx context.Context, req domain.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		oreq := toOpenAIRequest(req)
		oreq.Stream = true

		stream, err := g.client.CreateChatCompletionStream(ctx, oreq)
		if err != nil {
			yield("", g.wrap("chat completion stream", err))
			return
		}
		defer stream.Close()

		var b strings.Builder
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", g.wrap("chat completion stream", err))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			b.WriteString(chunk.Choices[0].Delta.Content)
			if !yield(b.String(), nil) {
				return
			}
		}
	}
}

func toOpenAIRequest(req domain.CompletionRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	// Temperature is omitempty in the client, so an exact zero would fall
	// back to the server default.
	temp := float32(req.Temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	}
}

func toOpenAIRole(r domain.Role) string {
	switch r {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func (g *OpenAIGateway) wrap(op string, err error) error {
	gwErr := &domain.GatewayError{Provider: g.provider, Op: op, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		gwErr.Status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		gwErr.Status = reqErr.HTTPStatusCode
	}
	return gwErr
}
