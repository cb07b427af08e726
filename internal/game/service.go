// Package game orchestrates session start, play and reporting.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/time-agent/internal/archive"
	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/generator"
	"github.com/ashureev/time-agent/internal/observability"
	"github.com/ashureev/time-agent/internal/puzzle"
	"github.com/ashureev/time-agent/internal/session"
)

// Mode selects where a session's puzzles come from.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeAI    Mode = "ai"
)

// SessionBuilder samples a session from the archives.
type SessionBuilder interface {
	BuildSession(ctx context.Context, topic string) (*domain.PuzzleSet, error)
}

// StaticSource lists the built-in puzzle sets.
type StaticSource interface {
	Keys() []string
	Sets() map[string]domain.PuzzleSet
}

// ArchiveService persists generated sets.
type ArchiveService interface {
	MergeGenerated(ctx context.Context, set domain.PuzzleSet) (archive.MergeResult, error)
	Snapshot(ctx context.Context) (*archive.Archive, error)
}

// Config holds game tunables.
type Config struct {
	SessionSize       int
	GenerationTimeout time.Duration
}

// Service is the entry point for everything a player does.
type Service struct {
	cfg      Config
	builder  SessionBuilder
	sessions *session.Manager
	provider generator.Provider
	archive  ArchiveService
	static   StaticSource
}

// NewService wires the game. provider may be nil when generation is disabled.
func NewService(cfg Config, builder SessionBuilder, sessions *session.Manager, provider generator.Provider, arch ArchiveService, static StaticSource) *Service {
	if cfg.SessionSize <= 0 {
		cfg.SessionSize = 7
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	return &Service{
		cfg:      cfg,
		builder:  builder,
		sessions: sessions,
		provider: provider,
		archive:  arch,
		static:   static,
	}
}

// AIEnabled reports whether generated sessions are available.
func (s *Service) AIEnabled() bool { return s.provider != nil }

// SessionSize is the number of rooms requested per session.
func (s *Service) SessionSize() int { return s.cfg.SessionSize }

// Start creates a session for owner in the given mode.
func (s *Service) Start(ctx context.Context, owner, topic string, mode Mode) (*session.Session, error) {
	switch mode {
	case ModeLocal, "":
		return s.StartLocal(ctx, owner, topic)
	case ModeAI:
		return s.StartGenerated(ctx, owner, topic)
	}
	return nil, fmt.Errorf("unknown mode %q: %w", mode, domain.ErrValidation)
}

// StartLocal samples a session from the catalog and the persisted archive.
func (s *Service) StartLocal(ctx context.Context, owner, topic string) (*session.Session, error) {
	topic, err := cleanTopic(topic)
	if err != nil {
		return nil, err
	}

	set, err := s.builder.BuildSession(ctx, topic)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(owner, *set)
	if err != nil {
		return nil, err
	}
	observability.SessionStarted(string(ModeLocal))
	observability.SetLiveSessions(s.sessions.Len())
	return sess, nil
}

// StartGenerated asks the provider for a fresh set, archives it and starts a
// session over it. An archive failure does not block play.
func (s *Service) StartGenerated(ctx context.Context, owner, topic string) (*session.Session, error) {
	topic, err := cleanTopic(topic)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, generator.ErrProviderUnavailable
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	started := time.Now()
	set, err := s.provider.Generate(genCtx, topic, s.cfg.SessionSize)
	observability.GenerationObserved(time.Since(started))
	if err != nil {
		observability.GenerationFailed(failureReason(err))
		slog.Error("Puzzle generation failed", "topic", topic, "error", err)
		return nil, err
	}

	set.Puzzles = validPuzzles(set.Puzzles)
	if len(set.Puzzles) == 0 {
		observability.GenerationFailed("invalid")
		return nil, fmt.Errorf("no valid puzzles generated for %q: %w", topic, domain.ErrProvider)
	}
	set.TotalRooms = len(set.Puzzles)

	res, err := s.archive.MergeGenerated(ctx, *set)
	if err != nil {
		slog.Warn("Failed to archive generated puzzles", "topic", set.Topic, "error", err)
	} else if res.Evicted != "" {
		observability.ArchiveEvicted(1)
	}

	sess, err := s.sessions.Create(owner, *set)
	if err != nil {
		return nil, err
	}
	observability.SessionStarted(string(ModeAI))
	observability.SetLiveSessions(s.sessions.Len())
	return sess, nil
}

// Session returns a session owned by owner.
func (s *Service) Session(owner, id string) (*session.Session, error) {
	return s.sessions.Get(owner, id)
}

// Begin leaves the session intro.
func (s *Service) Begin(owner, id string) (*session.Session, error) {
	sess, err := s.sessions.Get(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Begin(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Answer evaluates a submission against the active room.
func (s *Service) Answer(owner, id string, sub domain.Submission) (*session.Session, session.Outcome, error) {
	return s.evaluate(owner, id, func(sess *session.Session) (session.Outcome, error) {
		return sess.Submit(sub)
	})
}

// SubmitInput evaluates the active room's in-progress input.
func (s *Service) SubmitInput(owner, id string) (*session.Session, session.Outcome, error) {
	return s.evaluate(owner, id, (*session.Session).SubmitCurrent)
}

func (s *Service) evaluate(owner, id string, submit func(*session.Session) (session.Outcome, error)) (*session.Session, session.Outcome, error) {
	sess, err := s.sessions.Get(owner, id)
	if err != nil {
		return nil, session.Outcome{}, err
	}

	_, before := sess.Room()
	out, err := submit(sess)
	if err != nil {
		return nil, session.Outcome{}, err
	}

	observability.Answer(out.Correct, string(sess.CurrentType()))
	if before != session.PhaseForcedReveal && out.Phase == session.PhaseForcedReveal {
		observability.ForcedReveal()
	}
	return sess, out, nil
}

// Advance moves to the next room, finalizing after the last one.
func (s *Service) Advance(owner, id string) (*session.Session, error) {
	sess, err := s.sessions.Get(owner, id)
	if err != nil {
		return nil, err
	}
	done, err := sess.Advance()
	if err != nil {
		return nil, err
	}
	if done {
		observability.SessionFinished()
		report, _ := sess.Report()
		slog.Info("Session finished", "session_id", id, "score", report.Score, "attempts", report.TotalAttempts, "minutes", report.ElapsedMinutes)
	}
	return sess, nil
}

// End discards a session.
func (s *Service) End(owner, id string) error {
	if err := s.sessions.Delete(owner, id); err != nil {
		return err
	}
	observability.SetLiveSessions(s.sessions.Len())
	return nil
}

// Report lists puzzle counts per topic across both archives.
func (s *Service) Report(ctx context.Context) ([]domain.TopicReport, error) {
	dyn, err := s.archive.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	return archive.Report(s.static.Keys(), s.static.Sets(), dyn), nil
}

// ArchiveCount is the number of generated topics kept in the archive.
func (s *Service) ArchiveCount(ctx context.Context) (int, error) {
	dyn, err := s.archive.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("load archive: %w", err)
	}
	return dyn.Len(), nil
}

func cleanTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is required: %w", domain.ErrValidation)
	}
	return topic, nil
}

// validPuzzles cleans foreign payloads and drops puzzles that fail Check.
func validPuzzles(in []domain.Puzzle) []domain.Puzzle {
	out := make([]domain.Puzzle, 0, len(in))
	for _, p := range in {
		p = puzzle.Clean(p)
		if err := puzzle.Check(p); err != nil {
			slog.Warn("Discarding generated puzzle", "id", p.ID, "error", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, generator.ErrInvalidCredential):
		return "credential"
	case errors.Is(err, generator.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	return "provider"
}
