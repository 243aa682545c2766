package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

const exportsCollection = "exports"

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (GROQCHAT_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) exportsCol() *firestore.CollectionRef {
	return s.client.Collection(exportsCollection)
}

func (s *Store) exportDoc(id domain.ExportID) *firestore.DocumentRef {
	return s.exportsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type messageDoc struct {
	Role    string `firestore:"role"`
	Content string `firestore:"content"`
}

type exportDoc struct {
	SessionID       string       `firestore:"session_id"`
	ExportDate      time.Time    `firestore:"export_date"`
	Model           string       `firestore:"model"`
	Persona         string       `firestore:"persona"`
	Messages        []messageDoc `firestore:"messages"`
	TotalTokensUsed int          `firestore:"total_tokens_used"`
	Temperature     float64      `firestore:"temperature"`
	MaxTokens       int          `firestore:"max_tokens"`
	TokenLimit      int          `firestore:"token_limit"`
}

func toDoc(e *domain.Export) exportDoc {
	msgs := make([]messageDoc, 0, len(e.Messages))
	for _, m := range e.Messages {
		msgs = append(msgs, messageDoc{Role: string(m.Role), Content: m.Content})
	}
	return exportDoc{
		SessionID:       string(e.SessionID),
		ExportDate:      e.ExportDate,
		Model:           e.Model,
		Persona:         e.Persona,
		Messages:        msgs,
		TotalTokensUsed: e.TotalTokensUsed,
		Temperature:     e.Settings.Temperature,
		MaxTokens:       e.Settings.MaxTokens,
		TokenLimit:      e.Settings.TokenLimit,
	}
}

func fromDoc(id string, doc exportDoc) *domain.Export {
	msgs := make([]domain.Message, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		msgs = append(msgs, domain.Message{Role: domain.Role(m.Role), Content: m.Content})
	}
	return &domain.Export{
		ID: domain.ExportID(id),
		Snapshot: domain.Snapshot{
			ExportDate:      doc.ExportDate,
			SessionID:       domain.SessionID(doc.SessionID),
			Model:           doc.Model,
			Persona:         doc.Persona,
			Messages:        msgs,
			TotalTokensUsed: doc.TotalTokensUsed,
			Settings: domain.Settings{
				Temperature: doc.Temperature,
				MaxTokens:   doc.MaxTokens,
				TokenLimit:  doc.TokenLimit,
			},
		},
	}
}

// ─────────────────────────────────────────
// ArchiveStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveExport(ctx context.Context, export *domain.Export) error {
	_, err := s.exportDoc(export.ID).Create(ctx, toDoc(export))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("export %s already exists", export.ID)
		}
		return fmt.Errorf("firestore SaveExport: %w", err)
	}
	return nil
}

func (s *Store) GetExport(ctx context.Context, id domain.ExportID) (*domain.Export, error) {
	snap, err := s.exportDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrExportNotFound, id)
		}
		return nil, fmt.Errorf("firestore GetExport: %w", err)
	}

	var doc exportDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetExport decode: %w", err)
	}
	return fromDoc(snap.Ref.ID, doc), nil
}

func (s *Store) ListExports(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Export, error) {
	q := s.exportsCol().Where("session_id", "==", string(sessionID)).OrderBy("export_date", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Export
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListExports: %w", err)
		}

		var doc exportDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode exportDoc: %w", err)
		}
		out = append(out, fromDoc(snap.Ref.ID, doc))
	}
	return out, nil
}
