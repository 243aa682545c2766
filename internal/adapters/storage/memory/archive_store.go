package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

// ArchiveStore is a simple in-memory implementation of domain.ArchiveStore.
// It is NOT persistent and is only suitable for development / local mode.
type ArchiveStore struct {
	mu          sync.RWMutex
	exports     map[domain.ExportID]*domain.Export
	bySessionID map[domain.SessionID][]domain.ExportID
}

// NewArchiveStore creates a new in-memory ArchiveStore.
func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{
		exports:     make(map[domain.ExportID]*domain.Export),
		bySessionID: make(map[domain.SessionID][]domain.ExportID),
	}
}

// SaveExport saves a new export.
func (s *ArchiveStore) SaveExport(_ context.Context, export *domain.Export) error {
	if export == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.exports[export.ID]; exists {
		return fmt.Errorf("export %s already exists", export.ID)
	}

	s.exports[export.ID] = export
	s.bySessionID[export.SessionID] = append(s.bySessionID[export.SessionID], export.ID)

	return nil
}

func (s *ArchiveStore) GetExport(_ context.Context, id domain.ExportID) (*domain.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExportNotFound, id)
	}
	return e, nil
}

// ListExports returns the last `limit` exports for a session, newest first.
// If limit <= 0, returns all.
func (s *ArchiveStore) ListExports(
	_ context.Context,
	sessionID domain.SessionID,
	limit int,
) ([]*domain.Export, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySessionID[sessionID]
	if len(ids) == 0 {
		return []*domain.Export{}, nil
	}

	// If limit is not valid, use all
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}

	out := make([]*domain.Export, 0, limit)
	for i := len(ids) - 1; i >= len(ids)-limit; i-- {
		if e, ok := s.exports[ids[i]]; ok {
			out = append(out, e)
		}
	}

	return out, nil
}
