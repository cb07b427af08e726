package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/time-agent/internal/domain"
)

// Store persists the archive. Implementations read and write it wholesale.
type Store interface {
	Load(ctx context.Context) (*Archive, error)
	Save(ctx context.Context, a *Archive) error
	Update(ctx context.Context, fn func(*Archive) error) error
}

// Service applies merges against a persisted archive.
type Service struct {
	store  Store
	limits Limits
}

// NewService creates a merge service over store.
func NewService(store Store, limits Limits) *Service {
	return &Service{store: store, limits: limits}
}

// MergeGenerated folds a freshly generated set into the persisted archive
// and stores the result as the new baseline.
func (s *Service) MergeGenerated(ctx context.Context, set domain.PuzzleSet) (MergeResult, error) {
	var res MergeResult
	err := s.store.Update(ctx, func(a *Archive) error {
		res = Merge(a, set, s.limits)
		return nil
	})
	if err != nil {
		return MergeResult{}, fmt.Errorf("merge generated set %q: %w", set.Topic, err)
	}

	slog.Info("Merged generated puzzles into archive",
		"topic", res.Key,
		"added", res.Added,
		"dropped", res.Dropped,
		"evicted", res.Evicted)
	return res, nil
}

// Snapshot returns the current persisted archive.
func (s *Service) Snapshot(ctx context.Context) (*Archive, error) {
	return s.store.Load(ctx)
}

// Limits returns the retention limits in force.
func (s *Service) Limits() Limits {
	return s.limits
}
