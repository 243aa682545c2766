package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/PabloGalante/groq-chat/internal/app/archive"
	"github.com/PabloGalante/groq-chat/internal/app/conversation"
	"github.com/PabloGalante/groq-chat/internal/domain"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

// Server exposes one conversation session over HTTP.
type Server struct {
	sess    *conversation.Session
	archive *archive.Service
	origins []string
}

// NewServer builds the router. A nil archive disables the /exports routes.
func NewServer(sess *conversation.Session, archiveSvc *archive.Service) http.Handler {
	s := &Server{sess: sess, archive: archiveSvc, origins: []string{"*"}}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(withLogging)
	r.Use(chiMiddleware.Recoverer)
	r.Use(withCORS(s.origins))

	r.Get("/healthz", s.handleHealthz)

	r.Get("/models", s.handleListModels)
	r.Get("/models/current", s.handleCurrentModel)
	r.Put("/model", s.handleSetModel)

	r.Get("/personas", s.handleListPersonas)
	r.Put("/persona", s.handleSetPersona)

	r.Get("/settings", s.handleGetSettings)
	r.Patch("/settings", s.handlePatchSettings)

	r.Get("/messages", s.handleGetMessages)
	r.Post("/messages", s.handleSendMessage)
	r.Delete("/messages", s.handleClear)

	r.Get("/export", s.handleDownloadExport)
	if archiveSvc != nil {
		r.Post("/exports", s.handleSaveExport)
		r.Get("/exports", s.handleListExports)
		r.Get("/exports/{id}", s.handleGetExport)
	}

	r.Get("/connection", s.handleTestConnection)
	r.Get("/ws", s.handleWebSocket)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		methodNotAllowed(w)
	})
	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type setModelRequest struct {
	Key string `json:"key"`
}

type setPersonaRequest struct {
	Key        string `json:"key"`
	CustomText string `json:"custom_text,omitempty"`
}

type patchSettingsRequest struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	Streaming     *bool    `json:"streaming,omitempty"`
	ContextWindow *int     `json:"context_window,omitempty"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Reply       string `json:"reply"`
	TotalTokens int    `json:"total_tokens"`
}

type messagesResponse struct {
	Messages    []domain.Message `json:"messages"`
	TotalTokens int              `json:"total_tokens"`
}

type connectionResponse struct {
	OK    bool   `json:"ok"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

type exportResponse struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	ExportDate string `json:"export_date"`
	Model      string `json:"model"`
	Persona    string `json:"persona"`
	Messages   int    `json:"messages"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Models())
}

func (s *Server) handleCurrentModel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.CurrentModel())
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var req setModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.sess.SetModel(req.Key); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Settings())
}

func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Personas())
}

func (s *Server) handleSetPersona(w http.ResponseWriter, r *http.Request) {
	var req setPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.sess.SetPersona(req.Key, req.CustomText); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Settings())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Settings())
}

// handlePatchSettings checks every field before applying any of them.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var req patchSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if t := req.Temperature; t != nil && (*t < conversation.MinTemperature || *t > conversation.MaxTemperature) {
		badRequest(w, fmt.Sprintf("temperature must be between %.1f and %.1f", conversation.MinTemperature, conversation.MaxTemperature))
		return
	}
	if n := req.MaxTokens; n != nil && (*n < conversation.MinMaxTokens || *n > conversation.MaxMaxTokens) {
		badRequest(w, fmt.Sprintf("max_tokens must be between %d and %d", conversation.MinMaxTokens, conversation.MaxMaxTokens))
		return
	}
	if n := req.ContextWindow; n != nil && (*n < conversation.MinContextWindow || *n > conversation.MaxContextWindow) {
		badRequest(w, fmt.Sprintf("context_window must be between %d and %d", conversation.MinContextWindow, conversation.MaxContextWindow))
		return
	}

	var err error
	if req.Temperature != nil {
		err = errors.Join(err, s.sess.SetTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		err = errors.Join(err, s.sess.SetMaxTokens(*req.MaxTokens))
	}
	if req.ContextWindow != nil {
		err = errors.Join(err, s.sess.SetContextWindow(*req.ContextWindow))
	}
	if req.Streaming != nil {
		s.sess.SetStreaming(*req.Streaming)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Settings())
}

func (s *Server) handleGetMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messagesResponse{
		Messages:    s.sess.VisibleHistory(),
		TotalTokens: s.sess.TotalTokens(),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	if s.sess.Settings().Streaming && acceptsEventStream(r) {
		s.streamMessage(w, r, req.Text)
		return
	}

	reply := s.sess.SendUserMessage(context.WithoutCancel(r.Context()), req.Text, nil)
	writeJSON(w, http.StatusOK, sendMessageResponse{
		Reply:       reply,
		TotalTokens: s.sess.TotalTokens(),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.sess.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownloadExport(w http.ResponseWriter, _ *http.Request) {
	snap := s.sess.ExportSnapshot()
	data, err := snap.JSON()
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, domain.ExportFileName(snap.ExportDate)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSaveExport(w http.ResponseWriter, r *http.Request) {
	export, err := s.archive.Save(r.Context(), s.sess.ExportSnapshot())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExportResponse(export))
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	exports, err := s.archive.List(r.Context(), s.sess.ID(), limit)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]exportResponse, 0, len(exports))
	for _, e := range exports {
		out = append(out, toExportResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	export, err := s.archive.Get(r.Context(), domain.ExportID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	reply, err := s.sess.TestConnection(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, connectionResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, connectionResponse{OK: true, Reply: reply})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toExportResponse(e *domain.Export) exportResponse {
	return exportResponse{
		ID:         string(e.ID),
		SessionID:  string(e.SessionID),
		ExportDate: e.ExportDate.Format(time.RFC3339),
		Model:      e.Model,
		Persona:    e.Persona,
		Messages:   len(e.Messages),
	}
}

func acceptsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownModel),
		errors.Is(err, domain.ErrUnknownPersona),
		errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, domain.ErrInvalidRole):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrExportNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		internalError(w, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	observability.Logger().Error("internal server error", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
