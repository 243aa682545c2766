// Package archive keeps exported conversation snapshots.
package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/PabloGalante/groq-chat/internal/domain"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

const defaultListLimit = 20

// Service holds the logic of saving and reading exports.
type Service struct {
	store domain.ArchiveStore
	newID func() string
}

// NewService creates an archive service from an ArchiveStore.
func NewService(store domain.ArchiveStore) *Service {
	return &Service{
		store: store,
		newID: uuid.NewString,
	}
}

// Save archives a snapshot and returns the stored export.
func (s *Service) Save(ctx context.Context, snap domain.Snapshot) (*domain.Export, error) {
	export := &domain.Export{
		ID:       domain.ExportID(s.newID()),
		Snapshot: snap,
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", snap.SessionID,
		"export_id", export.ID,
	)

	if err := s.store.SaveExport(ctx, export); err != nil {
		log.Error("failed to save export", "error", err)
		return nil, fmt.Errorf("saving export: %w", err)
	}

	log.Info("export saved", "messages", len(snap.Messages))
	return export, nil
}

// Get returns one export by id.
func (s *Service) Get(ctx context.Context, id domain.ExportID) (*domain.Export, error) {
	return s.store.GetExport(ctx, id)
}

// List returns the last `limit` exports of a session, newest first.
// If limit <= 0, a reasonable default value is used.
func (s *Service) List(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Export, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListExports(ctx, sessionID, limit)
}
