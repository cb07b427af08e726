package session

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/puzzle"
)

// Transient is the in-progress input for the active room. It is discarded
// whenever the active room changes.
type Transient struct {
	SelectedOption *int              `json:"selected_option,omitempty"`
	Code           string            `json:"code,omitempty"`
	Order          []int             `json:"order,omitempty"`
	Matches        map[string]string `json:"matches,omitempty"`
	SelectedLeft   string            `json:"selected_left,omitempty"`
}

func newTransient(p domain.Puzzle, rng *rand.Rand) Transient {
	t := Transient{}
	switch p.Type {
	case domain.Ordering:
		t.Order = puzzle.Shuffle(p, rng)
	case domain.Matching:
		t.Matches = map[string]string{}
	}
	return t
}

func (t Transient) submission() domain.Submission {
	sub := domain.Submission{Code: t.Code, Order: slices.Clone(t.Order)}
	if t.SelectedOption != nil {
		sub.Option = domain.IntPtr(*t.SelectedOption)
	}
	if t.Matches != nil {
		sub.Matches = maps.Clone(t.Matches)
	}
	return sub
}

func (t Transient) clone() Transient {
	out := t
	if t.SelectedOption != nil {
		out.SelectedOption = domain.IntPtr(*t.SelectedOption)
	}
	out.Order = slices.Clone(t.Order)
	out.Matches = maps.Clone(t.Matches)
	return out
}

// Input returns a copy of the active room's transient input.
func (s *Session) Input() Transient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transient.clone()
}

// editable runs fn against the active room when it accepts input of type t.
func (s *Session) editable(t domain.PuzzleType, fn func(p domain.Puzzle) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhaseActive && s.phase != PhaseForcedReveal {
		return fmt.Errorf("edit input in phase %s: %w", s.phase, domain.ErrInvalidState)
	}
	p := s.set.Puzzles[s.room]
	if p.Type != t {
		return fmt.Errorf("room %d is %s, not %s: %w", s.room, p.Type, t, domain.ErrInvalidState)
	}
	return fn(p)
}

// SelectOption picks a multiple-choice option.
func (s *Session) SelectOption(idx int) error {
	return s.editable(domain.MultipleChoice, func(p domain.Puzzle) error {
		if idx < 0 || idx >= len(p.Options) {
			return fmt.Errorf("option %d out of range: %w", idx, domain.ErrValidation)
		}
		s.transient.SelectedOption = domain.IntPtr(idx)
		return nil
	})
}

// SetCode replaces the code buffer.
func (s *Session) SetCode(code string) error {
	return s.editable(domain.CodeEntry, func(domain.Puzzle) error {
		s.transient.Code = code
		return nil
	})
}

// AppendCode adds text to the end of the code buffer.
func (s *Session) AppendCode(text string) error {
	return s.editable(domain.CodeEntry, func(domain.Puzzle) error {
		s.transient.Code += text
		return nil
	})
}

// Backspace removes the last rune from the code buffer.
func (s *Session) Backspace() error {
	return s.editable(domain.CodeEntry, func(domain.Puzzle) error {
		runes := []rune(s.transient.Code)
		if len(runes) > 0 {
			s.transient.Code = string(runes[:len(runes)-1])
		}
		return nil
	})
}

// MoveItem moves the ordering entry at position from to position to.
func (s *Session) MoveItem(from, to int) error {
	return s.editable(domain.Ordering, func(domain.Puzzle) error {
		n := len(s.transient.Order)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("move %d->%d out of range: %w", from, to, domain.ErrValidation)
		}
		item := s.transient.Order[from]
		order := slices.Delete(s.transient.Order, from, from+1)
		s.transient.Order = slices.Insert(order, to, item)
		return nil
	})
}

// SelectLeft arms a left-hand matching value.
func (s *Session) SelectLeft(left string) error {
	return s.editable(domain.Matching, func(p domain.Puzzle) error {
		if !slices.ContainsFunc(p.MatchingPairs, func(mp domain.MatchingPair) bool { return mp.Left == left }) {
			return fmt.Errorf("unknown left value %q: %w", left, domain.ErrValidation)
		}
		if _, done := s.transient.Matches[left]; done {
			return fmt.Errorf("left value %q already matched: %w", left, domain.ErrInvalidState)
		}
		s.transient.SelectedLeft = left
		return nil
	})
}

// MatchRight pairs the armed left value with right.
func (s *Session) MatchRight(right string) error {
	return s.editable(domain.Matching, func(p domain.Puzzle) error {
		if s.transient.SelectedLeft == "" {
			return fmt.Errorf("no left value selected: %w", domain.ErrInvalidState)
		}
		if !slices.ContainsFunc(p.MatchingPairs, func(mp domain.MatchingPair) bool { return mp.Right == right }) {
			return fmt.Errorf("unknown right value %q: %w", right, domain.ErrValidation)
		}
		for _, used := range s.transient.Matches {
			if used == right {
				return fmt.Errorf("right value %q already matched: %w", right, domain.ErrInvalidState)
			}
		}
		s.transient.Matches[s.transient.SelectedLeft] = right
		s.transient.SelectedLeft = ""
		return nil
	})
}

// ClearMatch removes the match for left.
func (s *Session) ClearMatch(left string) error {
	return s.editable(domain.Matching, func(domain.Puzzle) error {
		delete(s.transient.Matches, left)
		return nil
	})
}
