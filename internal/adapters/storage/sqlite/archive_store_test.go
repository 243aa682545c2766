package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/groq-chat/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/groq-chat/internal/domain"
)

func newStore(t *testing.T) *sqlite.ArchiveStore {
	t.Helper()
	s, err := sqlite.NewArchiveStore(filepath.Join(t.TempDir(), "data", "exports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func export(id, session string, at time.Time) *domain.Export {
	return &domain.Export{
		ID: domain.ExportID(id),
		Snapshot: domain.Snapshot{
			ExportDate: at,
			SessionID:  domain.SessionID(session),
			Model:      "llama-3.1-8b-instant",
			Persona:    "Pirate",
			Messages: []domain.Message{
				{Role: domain.RoleSystem, Content: "Arr"},
				{Role: domain.RoleUser, Content: "Hello"},
				{Role: domain.RoleAssistant, Content: "Ahoy"},
			},
			TotalTokensUsed: 12,
			Settings:        domain.Settings{Temperature: 1.2, MaxTokens: 256, TokenLimit: 8192},
		},
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Ping(ctx))

	want := export("e1", "s1", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveExport(ctx, want))

	got, err := s.GetExport(ctx, "e1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateExportRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	e := export("e1", "s1", time.Now())
	require.NoError(t, s.SaveExport(ctx, e))
	assert.Error(t, s.SaveExport(ctx, e))
}

func TestGetMissingExport(t *testing.T) {
	_, err := newStore(t).GetExport(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrExportNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveExport(ctx, export(id, "s1", base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, s.SaveExport(ctx, export("x", "s2", base)))

	list, err := s.ListExports(ctx, "s1", 0)
	require.NoError(t, err)
	var ids []domain.ExportID
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []domain.ExportID{"c", "b", "a"}, ids)

	list, err = s.ListExports(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListExports(ctx, "unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
