// Package live streams session timers to the browser over WebSocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/identity"
	"github.com/ashureev/time-agent/internal/session"
)

const defaultInterval = time.Second

// SessionSource resolves a player's session.
type SessionSource interface {
	Session(owner, id string) (*session.Session, error)
}

// Tick is one timer update.
type Tick struct {
	Type                string         `json:"type"`
	SessionID           string         `json:"session_id"`
	RoomIndex           int            `json:"room_index"`
	Phase               session.Phase  `json:"phase"`
	RemainingSeconds    int            `json:"remaining_seconds"`
	RevealedDescription string         `json:"revealed_description"`
	Report              *domain.Report `json:"report,omitempty"`
}

// Handler serves the timer stream for one session per connection.
type Handler struct {
	sessions       SessionSource
	allowedOrigins []string
	isDev          bool
	interval       time.Duration
	now            func() time.Time
}

// NewHandler creates a stream handler.
func NewHandler(sessions SessionSource, allowedOrigins []string, isDev bool) *Handler {
	return &Handler{
		sessions:       sessions,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		interval:       defaultInterval,
		now:            time.Now,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := identity.PlayerIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "id")

	if _, err := h.sessions.Session(playerID, sessionID); err != nil {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", playerID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	slog.Info("Timer stream opened", "session_id", sessionID, "user_id", playerID, "ip", identity.IPFromRequest(r))
	// Client messages are ignored; CloseRead cancels ctx when the peer goes away.
	ctx := ws.CloseRead(r.Context())
	h.stream(ctx, ws, playerID, sessionID)
	slog.Info("Timer stream closed", "session_id", sessionID)
}

// stream writes ticks until the session finishes, disappears or ctx ends.
// The session is resolved on every tick so a deleted or expired session
// ends the stream with a "closed" message. The ticker is restarted whenever
// the active room changes so the reveal aligns with room entry.
func (h *Handler) stream(ctx context.Context, ws *websocket.Conn, owner, id string) {
	room := -1
	ticker := time.NewTicker(h.interval)
	defer func() { ticker.Stop() }()

	for {
		tick := h.tick(owner, id)
		if err := writeJSON(ctx, ws, tick); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Debug("Timer stream write failed", "error", err, "session_id", id)
			}
			return
		}
		if tick.Type != "tick" {
			return
		}
		if tick.RoomIndex != room {
			if room >= 0 {
				ticker.Stop()
				ticker = time.NewTicker(h.interval)
			}
			room = tick.RoomIndex
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) tick(owner, id string) Tick {
	sess, err := h.sessions.Session(owner, id)
	if err != nil {
		return Tick{Type: "closed", SessionID: id}
	}
	now := h.now()
	v := sess.View(now)
	t := Tick{
		Type:                "tick",
		SessionID:           sess.ID,
		RoomIndex:           v.RoomIndex,
		Phase:               v.Phase,
		RemainingSeconds:    v.RemainingSeconds,
		RevealedDescription: sess.RevealedDescription(now),
	}
	if v.Phase == session.PhaseFinished {
		t.Type = "finished"
		t.Report = v.Report
	}
	return t
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
