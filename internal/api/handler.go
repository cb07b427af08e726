// Package api provides HTTP handlers for the archive API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/game"
	"github.com/ashureev/time-agent/internal/generator"
	"github.com/ashureev/time-agent/internal/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GameService is the game surface the handlers drive.
type GameService interface {
	Start(ctx context.Context, owner, topic string, mode game.Mode) (*session.Session, error)
	Session(owner, id string) (*session.Session, error)
	Begin(owner, id string) (*session.Session, error)
	Answer(owner, id string, sub domain.Submission) (*session.Session, session.Outcome, error)
	SubmitInput(owner, id string) (*session.Session, session.Outcome, error)
	Advance(owner, id string) (*session.Session, error)
	End(owner, id string) error
	Report(ctx context.Context) ([]domain.TopicReport, error)
	ArchiveCount(ctx context.Context) (int, error)
	AIEnabled() bool
	SessionSize() int
}

// Handler provides common handler utilities.
type Handler struct {
	game                 GameService
	forcedRevealAttempts int
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(svc GameService, forcedRevealAttempts int) *Handler {
	return &Handler{game: svc, forcedRevealAttempts: forcedRevealAttempts}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps domain errors onto HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generator.ErrInvalidCredential):
		Error(w, http.StatusBadGateway, "The AI API key is invalid or expired.")
	case errors.Is(err, generator.ErrQuotaExceeded):
		Error(w, http.StatusTooManyRequests, "AI usage quota exceeded. Try again later.")
	case errors.Is(err, generator.ErrProviderUnavailable):
		Error(w, http.StatusServiceUnavailable, "AI mode is not configured on this server.")
	case errors.Is(err, domain.ErrProvider):
		Error(w, http.StatusBadGateway, "Communication failure: "+err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, "Topic not found in the local archive. Try AI mode.")
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		Error(w, http.StatusConflict, err.Error())
	default:
		slog.Error("Unhandled API error", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %v: %w", err, domain.ErrValidation)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	return nil
}
