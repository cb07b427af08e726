// Package domain contains core domain types for the Time Agent archive.
package domain

import "slices"

// PuzzleType discriminates the puzzle variants.
type PuzzleType string

const (
	MultipleChoice PuzzleType = "MULTIPLE_CHOICE"
	CodeEntry      PuzzleType = "CODE_ENTRY"
	Ordering       PuzzleType = "ORDERING"
	Matching       PuzzleType = "MATCHING"
)

// Valid reports whether t is one of the known puzzle variants.
func (t PuzzleType) Valid() bool {
	switch t {
	case MultipleChoice, CodeEntry, Ordering, Matching:
		return true
	}
	return false
}

// MatchingPair is one left/right association of a MATCHING puzzle.
type MatchingPair struct {
	Left  string `json:"left" validate:"required"`
	Right string `json:"right" validate:"required"`
}

// Puzzle is a single room of an escape session.
// Exactly one variant payload is populated, consistent with Type.
type Puzzle struct {
	ID          string     `json:"id" validate:"required"`
	Type        PuzzleType `json:"type" validate:"required"`
	Title       string     `json:"title"`
	Description string     `json:"description" validate:"required"`
	Clue        string     `json:"clue"`
	Question    string     `json:"question" validate:"required"`
	Explanation string     `json:"explanation" validate:"required"`

	// MULTIPLE_CHOICE
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`

	// CODE_ENTRY
	CorrectCode *string `json:"correctCode,omitempty"`

	// ORDERING
	ItemsToOrder    []string `json:"itemsToOrder,omitempty"`
	CorrectSequence []int    `json:"correctSequence,omitempty"`

	// MATCHING
	MatchingPairs []MatchingPair `json:"matchingPairs,omitempty" validate:"omitempty,dive"`

	IsTimed   bool   `json:"isTimed,omitempty"`
	TimeLimit int    `json:"timeLimit,omitempty" validate:"gte=0"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Source is a reference cited by a puzzle set.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// PuzzleSet is a themed collection of puzzles. As a session document,
// TotalRooms equals len(Puzzles).
type PuzzleSet struct {
	Topic      string   `json:"topic"`
	Narrative  string   `json:"narrative"`
	Puzzles    []Puzzle `json:"puzzles"`
	TotalRooms int      `json:"totalRooms"`
	Sources    []Source `json:"sources"`
}

// Clone returns a deep copy of the set so callers cannot alias puzzle slices.
func (s PuzzleSet) Clone() PuzzleSet {
	out := s
	out.Puzzles = slices.Clone(s.Puzzles)
	out.Sources = slices.Clone(s.Sources)
	return out
}

// Submission is a player's answer attempt. Only the field matching the
// puzzle's type is consulted.
type Submission struct {
	Option  *int              `json:"option,omitempty"`
	Code    string            `json:"code,omitempty"`
	Order   []int             `json:"order,omitempty"`
	Matches map[string]string `json:"matches,omitempty"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
