// Package puzzle implements per-variant answer checking for escape-room puzzles.
package puzzle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ashureev/time-agent/internal/domain"
)

// quoteStripper removes straight and typographic quote characters, including
// the Hebrew geresh/gershayim that players type in abbreviations.
var quoteStripper = strings.NewReplacer(
	`"`, "", `'`, "",
	"“", "", "”", "", "„", "", "‟", "",
	"‘", "", "’", "", "‚", "", "‛", "",
	"«", "", "»", "",
	"׳", "", "״", "",
)

// NormalizeCode canonicalises a code-entry answer for comparison.
func NormalizeCode(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSpace(quoteStripper.Replace(s))
}

// Evaluate reports whether sub solves p. It has no side effects.
//
// A puzzle whose variant payload is missing yields an error wrapping
// domain.ErrValidation rather than an automatic pass.
func Evaluate(p domain.Puzzle, sub domain.Submission) (bool, error) {
	switch p.Type {
	case domain.MultipleChoice:
		if p.CorrectAnswer == nil {
			return false, fmt.Errorf("puzzle %s: multiple choice without correctAnswer: %w", p.ID, domain.ErrValidation)
		}
		return sub.Option != nil && *sub.Option == *p.CorrectAnswer, nil

	case domain.CodeEntry:
		if p.CorrectCode == nil {
			return false, fmt.Errorf("puzzle %s: code entry without correctCode: %w", p.ID, domain.ErrValidation)
		}
		want := NormalizeCode(*p.CorrectCode)
		got := NormalizeCode(sub.Code)
		if got == "" {
			return false, nil
		}
		return got == want, nil

	case domain.Ordering:
		if len(p.CorrectSequence) == 0 {
			return false, fmt.Errorf("puzzle %s: ordering without correctSequence: %w", p.ID, domain.ErrValidation)
		}
		return slices.Equal(sub.Order, p.CorrectSequence), nil

	case domain.Matching:
		if len(p.MatchingPairs) == 0 {
			return false, fmt.Errorf("puzzle %s: matching without pairs: %w", p.ID, domain.ErrValidation)
		}
		if len(sub.Matches) != len(p.MatchingPairs) {
			return false, nil
		}
		for left, right := range sub.Matches {
			want, ok := rightFor(p.MatchingPairs, left)
			if !ok || want != right {
				return false, nil
			}
		}
		return true, nil

	default:
		return false, fmt.Errorf("puzzle %s: unknown type %q: %w", p.ID, p.Type, domain.ErrValidation)
	}
}

func rightFor(pairs []domain.MatchingPair, left string) (string, bool) {
	for _, pair := range pairs {
		if pair.Left == left {
			return pair.Right, true
		}
	}
	return "", false
}
