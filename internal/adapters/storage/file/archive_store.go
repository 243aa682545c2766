// Package file stores each export as a JSON document on disk, named after its
// timestamp (chat_export_YYYYMMDD_HHMMSS.json).
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

const (
	filePrefix = "chat_export_"
	fileSuffix = ".json"
)

type ArchiveStore struct {
	dir string
	mu  sync.Mutex
}

// NewArchiveStore creates dir if needed.
func NewArchiveStore(dir string) (*ArchiveStore, error) {
	if dir == "" {
		return nil, errors.New("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &ArchiveStore{dir: dir}, nil
}

// SaveExport writes the export and returns nil once it is on disk. Exports
// taken within the same second get the export id appended to the name.
func (s *ArchiveStore) SaveExport(_ context.Context, export *domain.Export) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := domain.ExportFileName(export.ExportDate)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		name = strings.TrimSuffix(name, fileSuffix) + "_" + string(export.ID) + fileSuffix
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write export file %s: %w", name, err)
	}
	return f.Close()
}

func (s *ArchiveStore) GetExport(_ context.Context, id domain.ExportID) (*domain.Export, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrExportNotFound, id)
}

func (s *ArchiveStore) ListExports(_ context.Context, sessionID domain.SessionID, limit int) ([]*domain.Export, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Export, 0, len(all))
	for _, e := range all {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExportDate.After(out[j].ExportDate)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// readAll decodes every export file in the directory. Files that are not
// exports are skipped.
func (s *ArchiveStore) readAll() ([]*domain.Export, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read archive directory: %w", err)
	}

	var out []*domain.Export
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read export %s: %w", name, err)
		}
		var e domain.Export
		if err := json.Unmarshal(data, &e); err != nil || e.ID == "" {
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}
