package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

func sampleExport() *domain.Export {
	return &domain.Export{
		ID: "e1",
		Snapshot: domain.Snapshot{
			ExportDate: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			SessionID:  "s1",
			Model:      "llama-3.1-8b-instant",
			Persona:    "Helpful",
			Messages: []domain.Message{
				{Role: domain.RoleSystem, Content: "sys"},
				{Role: domain.RoleUser, Content: "Hello"},
				{Role: domain.RoleAssistant, Content: "Hi there!"},
			},
			TotalTokensUsed: 3,
			Settings:        domain.Settings{Temperature: 0.7, MaxTokens: 512, TokenLimit: 4096},
		},
	}
}

func TestDocConversionRoundTrip(t *testing.T) {
	want := sampleExport()
	got := fromDoc("e1", toDoc(want))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestNewStoreRequiresProject(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.Error(t, err)
}

// Runs only against the Firestore emulator.
func TestStoreAgainstEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()

	s, err := NewStore(ctx, "groqchat-test")
	require.NoError(t, err)
	defer s.Close()

	e := sampleExport()
	e.ID = domain.ExportID(uuid.NewString())
	e.SessionID = domain.SessionID(uuid.NewString())
	require.NoError(t, s.SaveExport(ctx, e))
	assert.Error(t, s.SaveExport(ctx, e))

	got, err := s.GetExport(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Messages, got.Messages)

	_, err = s.GetExport(ctx, "missing-"+domain.ExportID(uuid.NewString()))
	require.ErrorIs(t, err, domain.ErrExportNotFound)

	list, err := s.ListExports(ctx, e.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
}
