// Package session tracks a player's progress through a sampled puzzle set.
package session

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/puzzle"
)

// Phase is the state of the active room.
type Phase string

const (
	PhaseIntro        Phase = "intro"
	PhaseActive       Phase = "active"
	PhaseCorrect      Phase = "correct"
	PhaseForcedReveal Phase = "forced_reveal"
	PhaseFinished     Phase = "finished"
)

const (
	// DefaultForcedRevealAttempts is the number of misses that unlocks a room.
	DefaultForcedRevealAttempts = 4
	// DefaultCountdown is the session-wide countdown shown to the player.
	DefaultCountdown = 20 * time.Minute

	revealPerRune = 10 * time.Millisecond
	revealMax     = 4 * time.Second
)

// Options tunes a session. Zero values fall back to defaults.
type Options struct {
	ForcedRevealAttempts int
	Countdown            time.Duration
	Clock                func() time.Time
	Rand                 *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.ForcedRevealAttempts <= 0 {
		o.ForcedRevealAttempts = DefaultForcedRevealAttempts
	}
	if o.Countdown <= 0 {
		o.Countdown = DefaultCountdown
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// Outcome describes the result of a single submission.
type Outcome struct {
	Correct      bool   `json:"correct"`
	Phase        Phase  `json:"phase"`
	RoomAttempts int    `json:"room_attempts"`
	Explanation  string `json:"explanation,omitempty"`
	Answer       string `json:"answer,omitempty"`
}

// Session is one run through a puzzle set. It is safe for concurrent use;
// every mutation is serialized by the session mutex.
type Session struct {
	ID      string
	OwnerID string

	mu            sync.Mutex
	opts          Options
	set           domain.PuzzleSet
	progress      domain.Progress
	phase         Phase
	room          int
	roomAttempts  int
	roomEnteredAt time.Time
	transient     Transient
	report        *domain.Report
	lastSeen      time.Time
}

// New starts a session over set in the intro phase. The set is copied; the
// session never mutates caller data.
func New(id, owner string, set domain.PuzzleSet, opts Options) (*Session, error) {
	if len(set.Puzzles) == 0 {
		return nil, fmt.Errorf("session needs at least one puzzle: %w", domain.ErrValidation)
	}
	opts = opts.withDefaults()
	set = set.Clone()
	set.TotalRooms = len(set.Puzzles)

	now := opts.Clock()
	return &Session{
		ID:       id,
		OwnerID:  owner,
		opts:     opts,
		set:      set,
		phase:    PhaseIntro,
		progress: domain.Progress{StartTimestamp: now},
		lastSeen: now,
	}, nil
}

// Begin leaves the session intro and activates the first room.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhaseIntro {
		return fmt.Errorf("begin in phase %s: %w", s.phase, domain.ErrInvalidState)
	}
	s.enterRoom(0)
	return nil
}

// Submit evaluates sub against the active room.
func (s *Session) Submit(sub domain.Submission) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.submit(sub)
}

// SubmitCurrent evaluates the room's transient input.
func (s *Session) SubmitCurrent() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.submit(s.transient.submission())
}

func (s *Session) submit(sub domain.Submission) (Outcome, error) {
	if s.phase != PhaseActive && s.phase != PhaseForcedReveal {
		return Outcome{}, fmt.Errorf("submit in phase %s: %w", s.phase, domain.ErrInvalidState)
	}
	p := s.set.Puzzles[s.room]
	correct, err := puzzle.Evaluate(p, sub)
	if err != nil {
		return Outcome{}, fmt.Errorf("evaluate room %d: %w", s.room, err)
	}

	s.progress.TotalAttempts++
	switch {
	case s.phase == PhaseForcedReveal:
		// Already unlocked; the attempt counts but earns nothing.
	case correct:
		s.progress.Score += 100 / float64(s.set.TotalRooms)
		s.progress.CurrentRoomIndex = s.room + 1
		s.phase = PhaseCorrect
	default:
		s.roomAttempts++
		if s.roomAttempts >= s.opts.ForcedRevealAttempts {
			s.phase = PhaseForcedReveal
		}
	}

	out := Outcome{Correct: correct, Phase: s.phase, RoomAttempts: s.roomAttempts}
	if s.phase == PhaseCorrect || s.phase == PhaseForcedReveal {
		out.Explanation = p.Explanation
		out.Answer = puzzle.Answer(p)
	}
	return out, nil
}

// Advance moves past a solved or force-revealed room. It reports whether the
// session finished.
func (s *Session) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhaseCorrect && s.phase != PhaseForcedReveal {
		return false, fmt.Errorf("advance in phase %s: %w", s.phase, domain.ErrInvalidState)
	}
	if s.room+1 < len(s.set.Puzzles) {
		s.enterRoom(s.room + 1)
		return false, nil
	}
	s.finish()
	return true, nil
}

// Report returns the final report once the session has finished.
func (s *Session) Report() (domain.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return domain.Report{}, false
	}
	return *s.report, true
}

// Remaining is the countdown left at now. It never goes below zero and
// reaching zero does not lock the session.
func (s *Session) Remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	left := s.opts.Countdown - now.Sub(s.progress.StartTimestamp)
	if left < 0 {
		return 0
	}
	return left
}

// RevealedDescription returns the prefix of the active room's description
// disclosed by now.
func (s *Session) RevealedDescription(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIntro || s.phase == PhaseFinished {
		return ""
	}
	return revealPrefix(s.set.Puzzles[s.room].Description, now.Sub(s.roomEnteredAt))
}

// Room returns the active room index and phase.
func (s *Session) Room() (int, Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.phase
}

// CurrentType is the puzzle type of the active room, or empty outside play.
func (s *Session) CurrentType() domain.PuzzleType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIntro || s.phase == PhaseFinished {
		return ""
	}
	return s.set.Puzzles[s.room].Type
}

// LastSeen is the time of the last player action.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.lastSeen = s.opts.Clock()
}

func (s *Session) enterRoom(idx int) {
	s.room = idx
	s.phase = PhaseActive
	s.roomAttempts = 0
	s.roomEnteredAt = s.opts.Clock()
	s.transient = newTransient(s.set.Puzzles[idx], s.opts.Rand)
}

func (s *Session) finish() {
	if s.report == nil {
		r := s.progress.Finalize(s.opts.Clock())
		s.report = &r
	}
	s.phase = PhaseFinished
	s.transient = Transient{}
}

// revealPrefix spreads the description over min(len*10ms, 4s).
func revealPrefix(desc string, elapsed time.Duration) string {
	n := utf8.RuneCountInString(desc)
	if n == 0 || elapsed <= 0 {
		return ""
	}
	total := time.Duration(n) * revealPerRune
	if total > revealMax {
		total = revealMax
	}
	if elapsed >= total {
		return desc
	}
	shown := int(int64(n) * int64(elapsed) / int64(total))
	runes := []rune(desc)
	return string(runes[:shown])
}
