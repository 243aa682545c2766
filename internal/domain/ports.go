package domain

import (
	"context"
	"iter"
)

// CompletionRequest is everything the endpoint needs for one completion.
// Messages are sent in stored order, system message first.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Usage is the token accounting reported with a non-streaming completion.
type Usage struct {
	TotalTokens int
}

// Completion is a full, non-streaming answer.
type Completion struct {
	Text  string
	Usage *Usage
}

// CompletionGateway defines how the application talks to the inference endpoint.
type CompletionGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Stream yields the response so far after every increment. Each value is
	// the full text produced up to that point, never a bare delta. A non-nil
	// error ends the sequence.
	Stream(ctx context.Context, req CompletionRequest) iter.Seq2[string, error]
}

// ArchiveStore defines export persistence.
type ArchiveStore interface {
	SaveExport(ctx context.Context, export *Export) error
	GetExport(ctx context.Context, id ExportID) (*Export, error)
	// ListExports returns the newest `limit` exports of a session, newest
	// first. limit <= 0 returns all of them.
	ListExports(ctx context.Context, sessionID SessionID, limit int) ([]*Export, error)
}
