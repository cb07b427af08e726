package session

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/time-agent/internal/domain"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func codePuzzle(i int) domain.Puzzle {
	return domain.Puzzle{
		ID:          fmt.Sprintf("c%d", i),
		Type:        domain.CodeEntry,
		Description: "A sealed door.",
		Question:    fmt.Sprintf("question %d", i),
		Explanation: fmt.Sprintf("explanation %d", i),
		CorrectCode: domain.StringPtr(fmt.Sprintf("code%d", i)),
	}
}

func codeSet(n int) domain.PuzzleSet {
	set := domain.PuzzleSet{Topic: "Herzl", Narrative: "n"}
	for i := range n {
		set.Puzzles = append(set.Puzzles, codePuzzle(i))
	}
	return set
}

func newSession(t *testing.T, set domain.PuzzleSet, clock *fakeClock) *Session {
	t.Helper()
	s, err := New("s1", "u1", set, Options{Clock: clock.Now, Rand: rand.New(rand.NewPCG(1, 2))})
	require.NoError(t, err)
	return s
}

func right(i int) domain.Submission { return domain.Submission{Code: fmt.Sprintf("code%d", i)} }
func wrong() domain.Submission      { return domain.Submission{Code: "nope"} }

func TestNewRejectsEmptySet(t *testing.T) {
	_, err := New("s", "u", domain.PuzzleSet{}, Options{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSubmitBeforeBegin(t *testing.T) {
	s := newSession(t, codeSet(2), newClock())

	_, err := s.Submit(right(0))
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), domain.ErrInvalidState)
}

func TestPerfectRunScoresHundred(t *testing.T) {
	clock := newClock()
	s := newSession(t, codeSet(7), clock)
	require.NoError(t, s.Begin())

	for i := range 7 {
		out, err := s.Submit(right(i))
		require.NoError(t, err)
		require.True(t, out.Correct)
		assert.Equal(t, PhaseCorrect, out.Phase)
		assert.Equal(t, fmt.Sprintf("explanation %d", i), out.Explanation)

		clock.Advance(90 * time.Second)
		done, err := s.Advance()
		require.NoError(t, err)
		assert.Equal(t, i == 6, done)
	}

	report, ok := s.Report()
	require.True(t, ok)
	assert.Equal(t, domain.Report{Score: 100, TotalAttempts: 7, ElapsedMinutes: 10}, report)
}

func TestForcedRevealOnFourthMiss(t *testing.T) {
	s := newSession(t, codeSet(2), newClock())
	require.NoError(t, s.Begin())

	for i := 1; i <= 3; i++ {
		out, err := s.Submit(wrong())
		require.NoError(t, err)
		assert.Equal(t, PhaseActive, out.Phase, "miss %d", i)
		assert.Equal(t, i, out.RoomAttempts)
		assert.Empty(t, out.Answer)

		_, err = s.Advance()
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}

	out, err := s.Submit(wrong())
	require.NoError(t, err)
	assert.Equal(t, PhaseForcedReveal, out.Phase)
	assert.Equal(t, "code0", out.Answer)
	assert.Equal(t, "explanation 0", out.Explanation)

	// Attempts after the reveal still count but do not score.
	out, err = s.Submit(right(0))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, PhaseForcedReveal, out.Phase)

	v := s.View(newClock().now)
	assert.Equal(t, 5, v.TotalAttempts)
	assert.Zero(t, v.Score)

	done, err := s.Advance()
	require.NoError(t, err)
	assert.False(t, done)

	idx, phase := s.Room()
	assert.Equal(t, 1, idx)
	assert.Equal(t, PhaseActive, phase)
	assert.Zero(t, s.View(newClock().now).RoomAttempts)
}

func TestCorrectRoomRejectsFurtherSubmissions(t *testing.T) {
	s := newSession(t, codeSet(2), newClock())
	require.NoError(t, s.Begin())

	_, err := s.Submit(right(0))
	require.NoError(t, err)
	_, err = s.Submit(right(0))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFinalizeOnce(t *testing.T) {
	clock := newClock()
	s := newSession(t, codeSet(1), clock)
	require.NoError(t, s.Begin())
	_, err := s.Submit(wrong())
	require.NoError(t, err)
	_, err = s.Submit(right(0))
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	done, err := s.Advance()
	require.NoError(t, err)
	require.True(t, done)

	first, _ := s.Report()
	clock.Advance(time.Hour)
	second, _ := s.Report()
	assert.Equal(t, first, second)
	assert.Equal(t, domain.Report{Score: 100, TotalAttempts: 2, ElapsedMinutes: 3}, first)

	_, err = s.Advance()
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = s.Submit(right(0))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestScoreRoundsPartialRuns(t *testing.T) {
	s := newSession(t, codeSet(3), newClock())
	require.NoError(t, s.Begin())

	_, err := s.Submit(right(0))
	require.NoError(t, err)
	_, err = s.Advance()
	require.NoError(t, err)

	for range 4 {
		_, err = s.Submit(wrong())
		require.NoError(t, err)
	}
	_, err = s.Advance()
	require.NoError(t, err)

	_, err = s.Submit(right(2))
	require.NoError(t, err)
	_, err = s.Advance()
	require.NoError(t, err)

	report, ok := s.Report()
	require.True(t, ok)
	assert.Equal(t, 67, report.Score)
	assert.Equal(t, 6, report.TotalAttempts)
}

func TestRemainingNeverNegative(t *testing.T) {
	clock := newClock()
	s := newSession(t, codeSet(1), clock)

	assert.Equal(t, DefaultCountdown, s.Remaining(clock.now))
	assert.Equal(t, 15*time.Minute, s.Remaining(clock.now.Add(5*time.Minute)))
	assert.Zero(t, s.Remaining(clock.now.Add(time.Hour)))
}

func TestRevealedDescription(t *testing.T) {
	clock := newClock()
	set := codeSet(2)
	set.Puzzles[0].Description = "abcdefghij"
	set.Puzzles[1].Description = "אבג"
	s := newSession(t, set, clock)

	assert.Empty(t, s.RevealedDescription(clock.now))
	require.NoError(t, s.Begin())

	assert.Empty(t, s.RevealedDescription(clock.now))
	assert.Equal(t, "abcde", s.RevealedDescription(clock.now.Add(50*time.Millisecond)))
	assert.Equal(t, "abcdefghij", s.RevealedDescription(clock.now.Add(time.Second)))

	_, err := s.Submit(right(0))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = s.Advance()
	require.NoError(t, err)

	assert.Equal(t, "א", s.RevealedDescription(clock.now.Add(10*time.Millisecond)))
}

func TestRevealPrefixCapped(t *testing.T) {
	long := make([]rune, 1000)
	for i := range long {
		long[i] = 'x'
	}
	desc := string(long)

	assert.Len(t, revealPrefix(desc, 2*time.Second), 500)
	assert.Equal(t, desc, revealPrefix(desc, revealMax))
}

func TestConfigurableForcedRevealThreshold(t *testing.T) {
	s, err := New("s", "u", codeSet(1), Options{ForcedRevealAttempts: 2, Clock: newClock().Now})
	require.NoError(t, err)
	require.NoError(t, s.Begin())

	out, err := s.Submit(wrong())
	require.NoError(t, err)
	assert.Equal(t, PhaseActive, out.Phase)
	out, err = s.Submit(wrong())
	require.NoError(t, err)
	assert.Equal(t, PhaseForcedReveal, out.Phase)
}

func TestSessionDoesNotAliasInput(t *testing.T) {
	set := codeSet(2)
	s := newSession(t, set, newClock())
	set.Puzzles[0].Question = "mutated"

	require.NoError(t, s.Begin())
	v := s.View(newClock().now)
	assert.Equal(t, "question 0", v.Room.Question)
}

func TestViewSourcesNeverNull(t *testing.T) {
	set := codeSet(1)
	set.Sources = []domain.Source{}
	s := newSession(t, set, newClock())

	data, err := json.Marshal(s.View(newClock().now))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sources":[]`)

	set.Sources = []domain.Source{{Title: "Altneuland", URI: "https://example.org/altneuland"}}
	s = newSession(t, set, newClock())
	assert.Equal(t, set.Sources, s.View(newClock().now).Sources)
}

func TestCloneKeepsEmptySources(t *testing.T) {
	set := domain.PuzzleSet{Sources: []domain.Source{}}
	assert.NotNil(t, set.Clone().Sources)
}
