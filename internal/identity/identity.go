// Package identity provides anonymous per-device player identity.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"
)

const (
	PlayerCookieName   = "time_agent_player"
	playerCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const playerIDKey contextKey = iota

var playerIDPattern = regexp.MustCompile(`^agent_[a-f0-9]{32}$`)

// PlayerIDFromContext extracts the player ID from the request context.
func PlayerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(playerIDKey).(string); ok {
		return v
	}
	return ""
}

// WithPlayerID returns a context carrying id.
func WithPlayerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, playerIDKey, id)
}

func generatePlayerID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate player id: %w", err)
	}
	return "agent_" + hex.EncodeToString(buf), nil
}

func isValidPlayerID(id string) bool {
	return playerIDPattern.MatchString(id)
}

func getOrCreatePlayerID(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	id := ""
	if c, err := r.Cookie(PlayerCookieName); err == nil && isValidPlayerID(c.Value) {
		id = c.Value
	} else {
		id, err = generatePlayerID()
		if err != nil {
			return "", err
		}
	}

	// Refresh on every request so active players keep their identity.
	http.SetCookie(w, &http.Cookie{
		Name:     PlayerCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(playerCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(playerCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
	return id, nil
}

// Middleware injects an anonymous per-device player ID.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID, err := getOrCreatePlayerID(w, r, isDev)
			if err != nil {
				http.Error(w, `{"error":"failed to establish anonymous identity"}`, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPlayerID(r.Context(), playerID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
