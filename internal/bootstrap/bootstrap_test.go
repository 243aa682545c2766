package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/groq-chat/internal/adapters/llm"
	filestore "github.com/PabloGalante/groq-chat/internal/adapters/storage/file"
	memstore "github.com/PabloGalante/groq-chat/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/groq-chat/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/groq-chat/internal/config"
	"github.com/PabloGalante/groq-chat/internal/domain"
)

func TestGatewaySelection(t *testing.T) {
	ctx := context.Background()

	gw, err := Gateway(ctx, &config.Config{UseMockLLM: true})
	require.NoError(t, err)
	assert.IsType(t, &llm.MockLLM{}, gw)

	gw, err = Gateway(ctx, &config.Config{Provider: config.ProviderGroq, APIKey: "gsk-test"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIGateway{}, gw)

	_, err = Gateway(ctx, &config.Config{Provider: config.ProviderOpenAI})
	require.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestCatalogFromFile(t *testing.T) {
	cat, err := Catalog(&config.Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Models())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	yaml := `default_model: m1
default_persona: Plain
models:
  - key: m1
    name: Model One
    description: test
    max_context: 1024
personas:
  - key: Plain
    prompt: Be plain.
  - key: Custom
    custom: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cat, err = Catalog(&config.Config{CatalogPath: path})
	require.NoError(t, err)
	assert.Equal(t, "m1", cat.DefaultModel())

	_, err = Catalog(&config.Config{CatalogPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestArchiveSelection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, closeFn, err := Archive(ctx, &config.Config{ArchiveBackend: config.ArchiveMemory})
	require.NoError(t, err)
	assert.IsType(t, &memstore.ArchiveStore{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = Archive(ctx, &config.Config{ArchiveBackend: config.ArchiveFile, ArchiveDir: filepath.Join(dir, "exports")})
	require.NoError(t, err)
	assert.IsType(t, &filestore.ArchiveStore{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = Archive(ctx, &config.Config{ArchiveBackend: config.ArchiveSQLite, SQLitePath: filepath.Join(dir, "db", "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlitestore.ArchiveStore{}, store)
	assert.NoError(t, closeFn())
}
