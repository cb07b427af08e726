// Package room assembles playable sessions from the static catalog and the
// persisted archive.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/ashureev/time-agent/internal/archive"
	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/puzzle"
)

// DefaultSampleSize is the number of rooms in a session.
const DefaultSampleSize = 7

// DefaultNarrative is used when no matched set carries one.
const DefaultNarrative = "An emergency mission at the heart of history."

// StaticSource lists built-in puzzle sets in a fixed key order.
type StaticSource interface {
	Keys() []string
	Get(topic string) (domain.PuzzleSet, bool)
}

// DynamicSource loads the persisted archive.
type DynamicSource interface {
	Snapshot(ctx context.Context) (*archive.Archive, error)
}

// Builder selects and samples puzzles for a topic.
type Builder struct {
	static     StaticSource
	dynamic    DynamicSource
	matcher    archive.Matcher
	sampleSize int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Builder.
type Option func(*Builder)

// WithRand sets the random source used for sampling.
func WithRand(rng *rand.Rand) Option {
	return func(b *Builder) { b.rng = rng }
}

// WithMatcher replaces the topic matcher.
func WithMatcher(m archive.Matcher) Option {
	return func(b *Builder) { b.matcher = m }
}

// WithSampleSize sets the number of rooms drawn per session.
func WithSampleSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.sampleSize = n
		}
	}
}

// NewBuilder creates a Builder. dynamic may be nil when no archive is kept.
func NewBuilder(static StaticSource, dynamic DynamicSource, opts ...Option) *Builder {
	b := &Builder{
		static:     static,
		dynamic:    dynamic,
		matcher:    archive.SubstringMatcher{},
		sampleSize: DefaultSampleSize,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildSession returns a session document for topic, or an error wrapping
// domain.ErrNotFound when neither source has matching puzzles.
//
// Replaying a topic draws a fresh random sample each time.
func (b *Builder) BuildSession(ctx context.Context, topic string) (*domain.PuzzleSet, error) {
	var (
		pool []domain.Puzzle
		meta *domain.PuzzleSet
		seen = make(map[string]struct{})
	)
	add := func(set domain.PuzzleSet, origin string) {
		for _, p := range set.Puzzles {
			if _, dup := seen[p.Question]; dup {
				continue
			}
			if err := puzzle.Check(p); err != nil {
				slog.Warn("Excluding invalid puzzle from pool", "origin", origin, "error", err)
				continue
			}
			seen[p.Question] = struct{}{}
			pool = append(pool, p)
		}
	}

	if key, ok := b.matcher.BestMatch(topic, b.static.Keys()); ok {
		set, _ := b.static.Get(key)
		add(set, "static")
		meta = &set
	}

	if b.dynamic != nil {
		dyn, err := b.dynamic.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("load archive: %w", err)
		}
		if key, ok := b.matcher.BestMatch(topic, dyn.Keys()); ok {
			set, _ := dyn.Get(key)
			add(set, "archive")
			if meta == nil {
				meta = &set
			}
		}
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("topic %q: %w", topic, domain.ErrNotFound)
	}

	puzzles := b.sample(pool)
	out := &domain.PuzzleSet{
		Topic:      strings.TrimSpace(topic),
		Narrative:  DefaultNarrative,
		Puzzles:    puzzles,
		TotalRooms: len(puzzles),
		Sources:    []domain.Source{},
	}
	if meta != nil {
		if meta.Topic != "" {
			out.Topic = meta.Topic
		}
		if meta.Narrative != "" {
			out.Narrative = meta.Narrative
		}
		if meta.Sources != nil {
			out.Sources = meta.Sources
		}
	}
	return out, nil
}

// sample draws up to sampleSize puzzles without replacement.
func (b *Builder) sample(pool []domain.Puzzle) []domain.Puzzle {
	if len(pool) <= b.sampleSize {
		return pool
	}
	b.mu.Lock()
	idx := b.rng.Perm(len(pool))[:b.sampleSize]
	b.mu.Unlock()

	out := make([]domain.Puzzle, 0, b.sampleSize)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}
