package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/game"
	"github.com/ashureev/time-agent/internal/identity"
	"github.com/ashureev/time-agent/internal/session"
)

// SessionHandler handles session and archive endpoints.
type SessionHandler struct {
	*Handler
	now func() time.Time
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base, now: time.Now}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Get("/report", h.GetReport)
		r.Post("/sessions", h.Create)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Post("/begin", h.Begin)
			r.Post("/answer", h.Answer)
			r.Post("/input", h.Input)
			r.Post("/submit", h.Submit)
			r.Post("/advance", h.Advance)
		})
	})
}

type createRequest struct {
	Topic string `json:"topic" validate:"required"`
	Mode  string `json:"mode" validate:"omitempty,oneof=local ai"`
}

type inputRequest struct {
	Action string `json:"action" validate:"required,oneof=select_option set_code append_code backspace move_item select_left match_right clear_match"`
	Option *int   `json:"option" validate:"required_if=Action select_option"`
	Code   string `json:"code"`
	From   *int   `json:"from" validate:"required_if=Action move_item"`
	To     *int   `json:"to" validate:"required_if=Action move_item"`
	Left   string `json:"left"`
	Right  string `json:"right"`
}

type answerResponse struct {
	Outcome session.Outcome `json:"outcome"`
	Session session.View    `json:"session"`
}

// GetConfig returns the server configuration for the frontend.
func (h *SessionHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	count, err := h.game.ArchiveCount(r.Context())
	if err != nil {
		slog.Warn("Failed to count archived topics", "error", err)
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled":             h.game.AIEnabled(),
		"session_size":           h.game.SessionSize(),
		"forced_reveal_attempts": h.forcedRevealAttempts,
		"archive_topics":         count,
	})
}

// GetReport returns puzzle counts per topic.
func (h *SessionHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.game.Report(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, report)
}

// Create starts a new session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := identity.PlayerIDFromContext(r.Context())

	var req createRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.game.Start(r.Context(), playerID, req.Topic, game.Mode(req.Mode))
	if err != nil {
		slog.Warn("Failed to start session", "error", err, "user_id", playerID, "topic", req.Topic, "mode", req.Mode)
		writeError(w, err)
		return
	}
	JSON(w, http.StatusCreated, sess.View(h.now()))
}

// Get returns the current session view.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.game.Session(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, sess.View(h.now()))
}

// Delete discards a session.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.game.End(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Begin leaves the session intro.
func (h *SessionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	sess, err := h.game.Begin(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, sess.View(h.now()))
}

// Answer evaluates an explicit submission.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := decode(r, &sub); err != nil {
		writeError(w, err)
		return
	}
	sess, out, err := h.game.Answer(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id"), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, answerResponse{Outcome: out, Session: sess.View(h.now())})
}

// Input applies one edit to the active room's in-progress answer.
func (h *SessionHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.game.Session(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch req.Action {
	case "select_option":
		if req.Option == nil {
			err = fmt.Errorf("option is required: %w", domain.ErrValidation)
			break
		}
		err = sess.SelectOption(*req.Option)
	case "set_code":
		err = sess.SetCode(req.Code)
	case "append_code":
		err = sess.AppendCode(req.Code)
	case "backspace":
		err = sess.Backspace()
	case "move_item":
		if req.From == nil || req.To == nil {
			err = fmt.Errorf("from and to are required: %w", domain.ErrValidation)
			break
		}
		err = sess.MoveItem(*req.From, *req.To)
	case "select_left":
		err = sess.SelectLeft(req.Left)
	case "match_right":
		err = sess.MatchRight(req.Right)
	case "clear_match":
		err = sess.ClearMatch(req.Left)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, sess.View(h.now()))
}

// Submit evaluates the in-progress answer built through Input.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, out, err := h.game.SubmitInput(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, answerResponse{Outcome: out, Session: sess.View(h.now())})
}

// Advance moves to the next room or finishes the session.
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sess, err := h.game.Advance(identity.PlayerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, sess.View(h.now()))
}
