// Package sqlite keeps exports in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

type ArchiveStore struct {
	db *sql.DB
}

// NewArchiveStore opens (or creates) the database at dbPath.
func NewArchiveStore(dbPath string) (*ArchiveStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &ArchiveStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *ArchiveStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		model TEXT NOT NULL,
		persona TEXT NOT NULL,
		total_tokens INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exports_session ON exports(session_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *ArchiveStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ArchiveStore) Close() error {
	return s.db.Close()
}

func (s *ArchiveStore) SaveExport(ctx context.Context, export *domain.Export) error {
	payload, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	query := `
	INSERT INTO exports (id, session_id, created_at, model, persona, total_tokens, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		string(export.ID), string(export.SessionID), export.ExportDate.UnixNano(),
		export.Model, export.Persona, export.TotalTokensUsed, string(payload),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("export %s already exists", export.ID)
		}
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

func (s *ArchiveStore) GetExport(ctx context.Context, id domain.ExportID) (*domain.Export, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM exports WHERE id = ?`, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrExportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query export: %w", err)
	}
	return decode(payload)
}

func (s *ArchiveStore) ListExports(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Export, error) {
	query := `SELECT payload FROM exports WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{string(sessionID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var out []*domain.Export
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		e, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}

func decode(payload string) (*domain.Export, error) {
	var e domain.Export
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &e, nil
}
