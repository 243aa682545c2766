package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

// GeminiConfig selects the Gemini API (APIKey) or Vertex AI (Project + Location).
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
}

// GeminiGateway implements domain.CompletionGateway using Gemini.
type GeminiGateway struct {
	client *genai.Client
}

// NewGeminiGateway creates a gateway on the Gemini API when an API key is
// given, on Vertex AI otherwise.
func NewGeminiGateway(ctx context.Context, cfg GeminiConfig) (*GeminiGateway, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.APIKey == "" {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("gemini gateway: API key or project and location are required: %w", domain.ErrMissingCredential)
		}
		clientCfg = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiGateway{client: client}, nil
}

// Complete implements domain.CompletionGateway.
func (g *GeminiGateway) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	contents, cfg := toGeminiRequest(req)

	res, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, &domain.GatewayError{Provider: "gemini", Op: "generate content", Err: err}
	}

	text := res.Text()
	if text == "" {
		return nil, &domain.GatewayError{Provider: "gemini", Op: "generate content", Err: domain.ErrEmptyResponse}
	}

	out := &domain.Completion{Text: text}
	if res.UsageMetadata != nil {
		out.Usage = &domain.Usage{TotalTokens: int(res.UsageMetadata.TotalTokenCount)}
	}
	return out, nil
}

// Stream implements domain.CompletionGateway.
func (g *GeminiGateway) Stream(ctx context.Context, req domain.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, cfg := toGeminiRequest(req)

		var b strings.Builder
		for res, err := range g.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				yield("", &domain.GatewayError{Provider: "gemini", Op: "stream content", Err: err})
				return
			}
			delta := res.Text()
			if delta == "" {
				continue
			}
			b.WriteString(delta)
			if !yield(b.String(), nil) {
				return
			}
		}
	}
}

// toGeminiRequest moves the system message into SystemInstruction and maps
// assistant turns to the model role.
func toGeminiRequest(req domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	temp := float32(req.Temperature)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			if m.Content != "" {
				// According to official examples, the role here is usually RoleUser, not "system"
				cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
			}
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	return contents, cfg
}
