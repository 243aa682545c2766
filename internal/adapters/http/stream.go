package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/PabloGalante/groq-chat/internal/observability"
)

type partialEvent struct {
	Text string `json:"text"`
}

// wsFrame is used in both directions. Clients send {"type":"message"};
// the server answers with "partial" frames, then "done" (or "error").
type wsFrame struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	TotalTokens int    `json:"total_tokens,omitempty"`
	Error       string `json:"error,omitempty"`
}

// streamMessage answers POST /messages with Server-Sent Events: one
// "partial" event per cumulative update, then a "done" event.
func (s *Server) streamMessage(w http.ResponseWriter, r *http.Request, text string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := observability.LoggerFromContext(r.Context())

	// A client that goes away stops delivery; the turn is still recorded.
	var writeErr error
	send := func(event string, v any) {
		if writeErr != nil {
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			writeErr = err
			return
		}
		if writeErr = writeSSE(w, event, string(data)); writeErr != nil {
			log.Warn("failed to write SSE event", "event", event, "error", writeErr)
			return
		}
		flusher.Flush()
	}

	reply := s.sess.SendUserMessage(context.WithoutCancel(r.Context()), text, func(partial string) {
		send("partial", partialEvent{Text: partial})
	})
	send("done", sendMessageResponse{Reply: reply, TotalTokens: s.sess.TotalTokens()})
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// handleWebSocket runs a chat loop over a websocket connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	log := observability.LoggerFromContext(ctx)

	for {
		var in wsFrame
		if err := wsjson.Read(ctx, c, &in); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug("websocket read ended", "error", err)
			}
			return
		}

		if in.Type != "message" {
			if err := wsjson.Write(ctx, c, wsFrame{Type: "error", Error: fmt.Sprintf("unknown frame type %q", in.Type)}); err != nil {
				return
			}
			continue
		}
		if strings.TrimSpace(in.Text) == "" {
			if err := wsjson.Write(ctx, c, wsFrame{Type: "error", Error: "text is required"}); err != nil {
				return
			}
			continue
		}

		var last string
		// The turn runs to completion even if the connection drops.
		for partial := range s.sess.Stream(context.WithoutCancel(ctx), in.Text) {
			last = partial
			if err = wsjson.Write(ctx, c, wsFrame{Type: "partial", Text: partial}); err != nil {
				break
			}
		}
		if err != nil {
			log.Debug("websocket write failed", "error", err)
			return
		}

		done := wsFrame{Type: "done", Text: last, TotalTokens: s.sess.TotalTokens()}
		if err := wsjson.Write(ctx, c, done); err != nil {
			return
		}
	}
}
