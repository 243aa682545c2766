// Package bootstrap turns a Config into the adapters both binaries share.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/PabloGalante/groq-chat/internal/adapters/llm"
	filestore "github.com/PabloGalante/groq-chat/internal/adapters/storage/file"
	firestorestore "github.com/PabloGalante/groq-chat/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/groq-chat/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/groq-chat/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/groq-chat/internal/catalog"
	"github.com/PabloGalante/groq-chat/internal/config"
	"github.com/PabloGalante/groq-chat/internal/domain"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

// Gateway picks the completion backend: mock, Gemini, or an OpenAI-compatible
// endpoint (Groq unless the provider or base URL say otherwise).
func Gateway(ctx context.Context, cfg *config.Config) (domain.CompletionGateway, error) {
	log := observability.Logger()

	if cfg.UseMockLLM {
		log.Info("using mock LLM gateway")
		return llm.NewMockLLM(), nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		log.Info("using Gemini gateway", "project", cfg.GCPProjectID)
		return llm.NewGeminiGateway(ctx, llm.GeminiConfig{
			APIKey:   cfg.APIKey,
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
		})
	default:
		log.Info("using OpenAI-compatible gateway", "provider", cfg.Provider, "base_url", cfg.BaseURL)
		return llm.NewOpenAIGateway(llm.OpenAIConfig{
			Provider: cfg.Provider,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
		})
	}
}

// Catalog loads GROQCHAT_CATALOG when set, the embedded catalog otherwise.
func Catalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

// Archive opens the configured export store. The returned close func is
// never nil.
func Archive(ctx context.Context, cfg *config.Config) (domain.ArchiveStore, func() error, error) {
	log := observability.Logger()
	noop := func() error { return nil }

	switch cfg.ArchiveBackend {
	case config.ArchiveMemory:
		log.Info("using in-memory archive")
		return memstore.NewArchiveStore(), noop, nil

	case config.ArchiveSQLite:
		log.Info("using sqlite archive", "path", cfg.SQLitePath)
		s, err := sqlitestore.NewArchiveStore(cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("error initializing sqlite archive: %w", err)
		}
		return s, s.Close, nil

	case config.ArchiveFirestore:
		log.Info("using firestore archive", "project", cfg.GCPProjectID)
		s, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, noop, fmt.Errorf("error initializing firestore archive: %w", err)
		}
		return s, s.Close, nil

	default:
		log.Info("using file archive", "dir", cfg.ArchiveDir)
		s, err := filestore.NewArchiveStore(cfg.ArchiveDir)
		if err != nil {
			return nil, noop, fmt.Errorf("error initializing file archive: %w", err)
		}
		return s, noop, nil
	}
}
