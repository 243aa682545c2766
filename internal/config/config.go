// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	ArchiveFile      = "file"
	ArchiveMemory    = "memory"
	ArchiveSQLite    = "sqlite"
	ArchiveFirestore = "firestore"
)

// credentialVars lists, per provider, the variables holding its API key in
// lookup order. OPENAI_API_KEY is an alternate name for the Groq key since
// Groq speaks the OpenAI protocol.
var credentialVars = map[string][]string{
	ProviderGroq:   {"GROQ_API_KEY", "OPENAI_API_KEY"},
	ProviderOpenAI: {"OPENAI_API_KEY"},
	ProviderGemini: {"GEMINI_API_KEY"},
}

type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	CatalogPath string
	UseMockLLM  bool

	Port string

	ArchiveBackend string // "file", "memory", "sqlite" or "firestore"
	ArchiveDir     string
	SQLitePath     string

	GCPProjectID string
	GCPLocation  string

	LogLevel string
	LogFile  string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads an optional .env file, then all env vars, and builds the config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Provider:    strings.ToLower(getEnv("GROQCHAT_PROVIDER", "")),
		BaseURL:     getEnv("GROQCHAT_BASE_URL", ""),
		CatalogPath: getEnv("GROQCHAT_CATALOG", ""),
		UseMockLLM:  getBoolEnv("GROQCHAT_USE_MOCK_LLM", false),

		Port: getEnv("GROQCHAT_PORT", "8080"),

		ArchiveBackend: strings.ToLower(getEnv("GROQCHAT_ARCHIVE_BACKEND", ArchiveFile)),
		ArchiveDir:     getEnv("GROQCHAT_ARCHIVE_DIR", "./exports"),
		SQLitePath:     getEnv("GROQCHAT_SQLITE_PATH", "./data/groqchat.db"),

		GCPProjectID: getEnv("GROQCHAT_GCP_PROJECT", ""),
		GCPLocation:  getEnv("GROQCHAT_GCP_LOCATION", "us-central1"),

		LogLevel: getEnv("GROQCHAT_LOG_LEVEL", "info"),
		LogFile:  getEnv("GROQCHAT_LOG_FILE", ""),
	}
	cfg.resolveCredential()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveCredential picks the API key for the provider. The provider is
// groq unless GROQCHAT_PROVIDER says otherwise; a key alone never switches it.
func (c *Config) resolveCredential() {
	if c.Provider == "" {
		c.Provider = ProviderGroq
	}
	for _, env := range credentialVars[c.Provider] {
		if key := os.Getenv(env); key != "" {
			c.APIKey = key
			return
		}
	}
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("GROQCHAT_PROVIDER %q is not one of groq, openai, gemini", c.Provider)
	}

	if !c.UseMockLLM && c.APIKey == "" {
		vertex := c.Provider == ProviderGemini && c.GCPProjectID != ""
		if !vertex {
			return fmt.Errorf("%w: set %s", domain.ErrMissingCredential, strings.Join(credentialVars[c.Provider], " or "))
		}
	}

	// The built-in catalog only lists Groq models.
	if !c.UseMockLLM && c.Provider != ProviderGroq && c.CatalogPath == "" {
		return fmt.Errorf("GROQCHAT_CATALOG is required with provider %q", c.Provider)
	}

	if c.Port == "" {
		return errors.New("GROQCHAT_PORT cannot be empty")
	}

	switch c.ArchiveBackend {
	case ArchiveFile:
		if c.ArchiveDir == "" {
			return errors.New("GROQCHAT_ARCHIVE_DIR cannot be empty")
		}
	case ArchiveMemory:
	case ArchiveSQLite:
		if c.SQLitePath == "" {
			return errors.New("GROQCHAT_SQLITE_PATH cannot be empty")
		}
	case ArchiveFirestore:
		if c.GCPProjectID == "" {
			return errors.New("GROQCHAT_GCP_PROJECT is required for the firestore archive backend")
		}
	default:
		return fmt.Errorf("GROQCHAT_ARCHIVE_BACKEND %q is not supported", c.ArchiveBackend)
	}
	return nil
}
