package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/groq-chat/internal/adapters/llm"
	"github.com/PabloGalante/groq-chat/internal/domain"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newGateway(t *testing.T, handler http.HandlerFunc) *llm.OpenAIGateway {
	t.Helper()
	gw, _ := newGatewayServer(t, handler)
	return gw
}

func newGatewayServer(t *testing.T, handler http.HandlerFunc) (*llm.OpenAIGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := llm.NewOpenAIGateway(llm.OpenAIConfig{
		Provider:   "groq",
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/openai/v1/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return gw, srv
}

var testRequest = domain.CompletionRequest{
	Model: "llama-3.1-8b-instant",
	Messages: []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "Hello"},
	},
	Temperature: 0.5,
	MaxTokens:   64,
}

func TestOpenAIGatewayComplete(t *testing.T) {
	var got chatRequest
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there!"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":3,"total_tokens":8}}`)
	})

	res, err := gw.Complete(context.Background(), testRequest)
	require.NoError(t, err)

	assert.Equal(t, "Hi there!", res.Text)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 8, res.Usage.TotalTokens)

	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAIGatewayCompleteHTTPError(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"tokens"}}`)
	})

	_, err := gw.Complete(context.Background(), testRequest)
	require.Error(t, err)

	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "groq", gwErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, gwErr.Status)
	assert.Contains(t, err.Error(), "Rate limit reached")
}

func TestOpenAIGatewayCompleteNoChoices(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","choices":[]}`)
	})

	_, err := gw.Complete(context.Background(), testRequest)
	require.ErrorIs(t, err, domain.ErrEmptyResponse)
}

func sseHandler(t *testing.T, deltas ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, d := range deltas {
			content, _ := json.Marshal(d)
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%s}}]}\n\n", content)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func TestOpenAIGatewayStream(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	gw, srv := newGatewayServer(t, sseHandler(t, "Hi", "", " there", "!"))

	var got []string
	for partial, err := range gw.Stream(context.Background(), testRequest) {
		require.NoError(t, err)
		got = append(got, partial)
	}

	assert.Equal(t, []string{"Hi", "Hi there", "Hi there!"}, got)

	srv.Close()
	goleak.VerifyNone(t, ignore)
}

func TestOpenAIGatewayStreamEarlyStop(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	gw, srv := newGatewayServer(t, sseHandler(t, "a", "b", "c"))

	var got []string
	for partial, err := range gw.Stream(context.Background(), testRequest) {
		require.NoError(t, err)
		got = append(got, partial)
		break
	}

	assert.Equal(t, []string{"a"}, got)

	srv.Close()
	goleak.VerifyNone(t, ignore)
}

func TestOpenAIGatewayStreamHTTPError(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`)
	})

	var errs []error
	for _, err := range gw.Stream(context.Background(), testRequest) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	var gwErr *domain.GatewayError
	require.True(t, errors.As(errs[0], &gwErr))
	assert.Equal(t, http.StatusUnauthorized, gwErr.Status)
}

func TestNewOpenAIGatewayRequiresKey(t *testing.T) {
	_, err := llm.NewOpenAIGateway(llm.OpenAIConfig{})
	require.ErrorIs(t, err, domain.ErrMissingCredential)
}
