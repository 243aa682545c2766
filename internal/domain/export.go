package domain

import (
	"encoding/json"
	"time"
)

// Settings holds the sampling parameters recorded in an export.
type Settings struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TokenLimit  int     `json:"token_limit"`
}

// Snapshot is a point-in-time copy of a conversation and its selections.
type Snapshot struct {
	ExportDate      time.Time `json:"export_date"`
	SessionID       SessionID `json:"session_id"`
	Model           string    `json:"model"`
	Persona         string    `json:"persona"`
	Messages        []Message `json:"messages"`
	TotalTokensUsed int       `json:"total_tokens_used"`
	Settings        Settings  `json:"settings"`
}

// JSON renders the snapshot the way it is written to disk.
func (s Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Export is an archived snapshot.
type Export struct {
	ID ExportID `json:"id"`
	Snapshot
}

// ExportFileName names an export file after its local timestamp,
// e.g. chat_export_20240101_120000.json.
func ExportFileName(t time.Time) string {
	return "chat_export_" + t.Local().Format("20060102_150405") + ".json"
}
