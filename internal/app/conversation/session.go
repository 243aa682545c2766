// Package conversation owns the state of one chat: history, persona and model
// selection, sampling parameters and token accounting.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/groq-chat/internal/catalog"
	"github.com/PabloGalante/groq-chat/internal/domain"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

// Parameter domains.
const (
	MinTemperature   = 0.0
	MaxTemperature   = 1.0
	MinMaxTokens     = 50
	MaxMaxTokens     = 2000
	MinContextWindow = 1024
	MaxContextWindow = 32768
)

// Defaults for a fresh session.
const (
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 512
	DefaultStreaming     = true
	DefaultContextWindow = 4096
)

// Settings is the current selection and parameter set of a session.
type Settings struct {
	Model         string  `json:"model"`
	Persona       string  `json:"persona"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"max_tokens"`
	Streaming     bool    `json:"streaming"`
	ContextWindow int     `json:"context_window"`
}

// Session is one conversation. Build it with New and pass it explicitly to
// whatever front-end drives it.
//
// Mutating calls and sends are serialized on turn, so at most one request is
// in flight. Read-only queries only take mu and never wait for the gateway.
type Session struct {
	id      domain.SessionID
	gateway domain.CompletionGateway
	catalog *catalog.Catalog
	now     func() time.Time

	turn sync.Mutex

	mu            sync.RWMutex
	history       domain.History
	modelKey      string
	personaKey    string
	customPrompt  string
	temperature   float64
	maxTokens     int
	streaming     bool
	contextWindow int
	totalTokens   int
}

type Option func(*Session)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID sets the session id instead of a random UUID.
func WithID(id domain.SessionID) Option {
	return func(s *Session) { s.id = id }
}

// New creates a session with the catalog defaults and installs the default
// persona's system message.
func New(gateway domain.CompletionGateway, cat *catalog.Catalog, opts ...Option) *Session {
	if cat == nil {
		cat = catalog.Default()
	}

	s := &Session{
		id:            domain.SessionID(uuid.NewString()),
		gateway:       gateway,
		catalog:       cat,
		now:           time.Now,
		modelKey:      cat.DefaultModel(),
		temperature:   DefaultTemperature,
		maxTokens:     DefaultMaxTokens,
		streaming:     DefaultStreaming,
		contextWindow: DefaultContextWindow,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.SetPersona(cat.DefaultPersona(), ""); err != nil {
		// Load guarantees the default persona exists.
		panic(fmt.Sprintf("conversation: %v", err))
	}

	observability.WithFields("session_id", s.id).Info("session created",
		"model", s.modelKey,
		"persona", s.personaKey,
	)
	return s
}

func (s *Session) ID() domain.SessionID {
	return s.id
}

// SetPersona selects a persona and installs its prompt as the system message.
// customText is only used for the catalog's custom persona.
func (s *Session) SetPersona(key, customText string) error {
	p, err := s.catalog.Persona(key)
	if err != nil {
		return err
	}

	prompt := p.Prompt
	if p.Custom {
		prompt = customText
	}

	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.personaKey = p.Key
	s.customPrompt = ""
	if p.Custom {
		s.customPrompt = customText
	}
	s.history.SetSystem(prompt)
	return nil
}

// SetModel selects a model from the catalog.
func (s *Session) SetModel(key string) error {
	if _, err := s.catalog.Model(key); err != nil {
		return err
	}

	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modelKey = key
	return nil
}

func (s *Session) SetTemperature(t float64) error {
	if t < MinTemperature || t > MaxTemperature {
		return fmt.Errorf("temperature %v not in [%v, %v]: %w", t, MinTemperature, MaxTemperature, domain.ErrOutOfRange)
	}

	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temperature = t
	return nil
}

func (s *Session) SetMaxTokens(n int) error {
	if n < MinMaxTokens || n > MaxMaxTokens {
		return fmt.Errorf("max tokens %d not in [%d, %d]: %w", n, MinMaxTokens, MaxMaxTokens, domain.ErrOutOfRange)
	}

	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxTokens = n
	return nil
}

func (s *Session) SetStreaming(on bool) {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaming = on
}

// SetContextWindow records the advisory context size. History is never
// truncated to fit it.
func (s *Session) SetContextWindow(n int) error {
	if n < MinContextWindow || n > MaxContextWindow {
		return fmt.Errorf("context window %d not in [%d, %d]: %w", n, MinContextWindow, MaxContextWindow, domain.ErrOutOfRange)
	}

	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contextWindow = n
	return nil
}

// AppendMessage adds a user or assistant turn at the end of the history.
func (s *Session) AppendMessage(role domain.Role, content string) error {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.Append(domain.Message{Role: role, Content: content})
}

// Clear drops the conversation, keeping only the system message, and resets
// the token counter. Selections and parameters are untouched.
func (s *Session) Clear() {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Reset()
	s.totalTokens = 0
}

// Messages returns the full history, system message included.
func (s *Session) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Messages()
}

// VisibleHistory returns the history without the system message.
func (s *Session) VisibleHistory() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Visible()
}

func (s *Session) TotalTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalTokens
}

func (s *Session) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Settings{
		Model:         s.modelKey,
		Persona:       s.personaKey,
		Temperature:   s.temperature,
		MaxTokens:     s.maxTokens,
		Streaming:     s.streaming,
		ContextWindow: s.contextWindow,
	}
}

// CurrentModel returns the catalog entry of the selected model.
func (s *Session) CurrentModel() domain.Model {
	s.mu.RLock()
	key := s.modelKey
	s.mu.RUnlock()

	// modelKey is validated on assignment.
	m, _ := s.catalog.Model(key)
	return m
}

// CurrentPersona returns the selected persona. For the custom persona the
// prompt is the text supplied on selection.
func (s *Session) CurrentPersona() domain.Persona {
	s.mu.RLock()
	key, custom := s.personaKey, s.customPrompt
	s.mu.RUnlock()

	p, _ := s.catalog.Persona(key)
	if p.Custom {
		p.Prompt = custom
	}
	return p
}

func (s *Session) Models() []domain.Model {
	return s.catalog.Models()
}

func (s *Session) Personas() []domain.Persona {
	return s.catalog.Personas()
}
