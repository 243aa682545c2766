package conversation

import "github.com/PabloGalante/groq-chat/internal/domain"

// ExportSnapshot copies the conversation and its selections. It does not
// modify the session.
func (s *Session) ExportSnapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Snapshot{
		ExportDate:      s.now(),
		SessionID:       s.id,
		Model:           s.modelKey,
		Persona:         s.personaKey,
		Messages:        s.history.Messages(),
		TotalTokensUsed: s.totalTokens,
		Settings: domain.Settings{
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
			TokenLimit:  s.contextWindow,
		},
	}
}
