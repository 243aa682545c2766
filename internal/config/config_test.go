package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

var allVars = []string{
	"GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
	"GROQCHAT_PROVIDER", "GROQCHAT_BASE_URL", "GROQCHAT_CATALOG", "GROQCHAT_USE_MOCK_LLM",
	"GROQCHAT_PORT", "GROQCHAT_ARCHIVE_BACKEND", "GROQCHAT_ARCHIVE_DIR", "GROQCHAT_SQLITE_PATH",
	"GROQCHAT_GCP_PROJECT", "GROQCHAT_GCP_LOCATION", "GROQCHAT_LOG_LEVEL", "GROQCHAT_LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGroq, cfg.Provider)
	assert.Equal(t, "gsk-test", cfg.APIKey)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ArchiveFile, cfg.ArchiveBackend)
	assert.Equal(t, "./exports", cfg.ArchiveDir)
	assert.Equal(t, "us-central1", cfg.GCPLocation)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.UseMockLLM)
}

func TestMissingCredential(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestMockModeNeedsNoCredential(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQCHAT_USE_MOCK_LLM", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UseMockLLM)
	assert.Equal(t, ProviderGroq, cfg.Provider)
}

func TestOpenAIKeyIsAGroqFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, cfg.Provider)
	assert.Equal(t, "sk-x", cfg.APIKey)
	assert.Empty(t, cfg.CatalogPath)
}

func TestGroqKeyWinsOverOpenAIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("OPENAI_API_KEY", "sk-x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, cfg.Provider)
	assert.Equal(t, "gsk-test", cfg.APIKey)
}

func TestGeminiKeyAloneDoesNotSwitchProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-key")

	_, err := Load()
	require.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestExplicitProviderUsesItsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("GROQCHAT_PROVIDER", "Gemini")
	t.Setenv("GROQCHAT_CATALOG", "gemini.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gm-key", cfg.APIKey)
}

func TestNonGroqProviderRequiresCatalog(t *testing.T) {
	for _, provider := range []string{ProviderOpenAI, ProviderGemini} {
		t.Run(provider, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OPENAI_API_KEY", "sk-x")
			t.Setenv("GEMINI_API_KEY", "gm-key")
			t.Setenv("GROQCHAT_PROVIDER", provider)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "GROQCHAT_CATALOG")

			t.Setenv("GROQCHAT_CATALOG", "models.yaml")
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, provider, cfg.Provider)
		})
	}
}

func TestGeminiVertexWithoutKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQCHAT_PROVIDER", "gemini")
	t.Setenv("GROQCHAT_GCP_PROJECT", "my-project")
	t.Setenv("GROQCHAT_CATALOG", "gemini.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"GROQCHAT_PROVIDER": "anthropic"}},
		{"unknown backend", map[string]string{"GROQCHAT_ARCHIVE_BACKEND": "s3"}},
		{"firestore without project", map[string]string{"GROQCHAT_ARCHIVE_BACKEND": "firestore"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GROQCHAT_USE_MOCK_LLM", "true")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
