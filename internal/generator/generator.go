// Package generator produces puzzle sets from a remote language model.
package generator

import (
	"context"
	"fmt"

	"github.com/ashureev/time-agent/internal/domain"
)

// DefaultNarrative is used when the model returns no narrative.
const DefaultNarrative = "History is in danger. You must restore the records."

var (
	// ErrInvalidCredential is returned when the provider rejects the API key.
	ErrInvalidCredential = fmt.Errorf("API key is invalid or expired: %w", domain.ErrProvider)

	// ErrQuotaExceeded is returned when the provider's usage quota is spent.
	ErrQuotaExceeded = fmt.Errorf("generation quota exceeded, try again later: %w", domain.ErrProvider)

	// ErrProviderUnavailable is returned when no provider is configured.
	ErrProviderUnavailable = fmt.Errorf("generation is not configured: %w", domain.ErrProvider)
)

// Provider generates a themed puzzle set.
type Provider interface {
	Generate(ctx context.Context, topic string, count int) (*domain.PuzzleSet, error)
}
