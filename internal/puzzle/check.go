package puzzle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/go-playground/validator/v10"
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Check verifies that p carries the common fields and exactly the variant
// payload its type requires. Errors wrap domain.ErrValidation.
func Check(p domain.Puzzle) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("puzzle %q: field %s failed %q: %w", p.ID, verrs[0].Field(), verrs[0].Tag(), domain.ErrValidation)
		}
		return fmt.Errorf("puzzle %q: %v: %w", p.ID, err, domain.ErrValidation)
	}
	if !p.Type.Valid() {
		return invalid(p, "unknown type %q", p.Type)
	}

	hasChoice := len(p.Options) > 0 || p.CorrectAnswer != nil
	hasCode := p.CorrectCode != nil
	hasOrder := len(p.ItemsToOrder) > 0 || len(p.CorrectSequence) > 0
	hasMatch := len(p.MatchingPairs) > 0

	switch p.Type {
	case domain.MultipleChoice:
		if hasCode || hasOrder || hasMatch {
			return invalid(p, "foreign payload on multiple choice")
		}
		if len(p.Options) < 2 {
			return invalid(p, "needs at least two options")
		}
		if p.CorrectAnswer == nil || *p.CorrectAnswer < 0 || *p.CorrectAnswer >= len(p.Options) {
			return invalid(p, "correctAnswer out of range")
		}

	case domain.CodeEntry:
		if hasChoice || hasOrder || hasMatch {
			return invalid(p, "foreign payload on code entry")
		}
		if p.CorrectCode == nil || NormalizeCode(*p.CorrectCode) == "" {
			return invalid(p, "missing correctCode")
		}

	case domain.Ordering:
		if hasChoice || hasCode || hasMatch {
			return invalid(p, "foreign payload on ordering")
		}
		if len(p.ItemsToOrder) < 2 {
			return invalid(p, "needs at least two items")
		}
		if !isPermutation(p.CorrectSequence, len(p.ItemsToOrder)) {
			return invalid(p, "correctSequence is not a permutation of itemsToOrder")
		}

	case domain.Matching:
		if hasChoice || hasCode || hasOrder {
			return invalid(p, "foreign payload on matching")
		}
		if len(p.MatchingPairs) < 2 {
			return invalid(p, "needs at least two pairs")
		}
		lefts := make(map[string]struct{}, len(p.MatchingPairs))
		rights := make(map[string]struct{}, len(p.MatchingPairs))
		for _, pair := range p.MatchingPairs {
			if _, dup := lefts[pair.Left]; dup {
				return invalid(p, "duplicate left value %q", pair.Left)
			}
			if _, dup := rights[pair.Right]; dup {
				return invalid(p, "duplicate right value %q", pair.Right)
			}
			lefts[pair.Left] = struct{}{}
			rights[pair.Right] = struct{}{}
		}
	}
	return nil
}

func invalid(p domain.Puzzle, format string, args ...any) error {
	return fmt.Errorf("puzzle %q: %s: %w", p.ID, fmt.Sprintf(format, args...), domain.ErrValidation)
}

func isPermutation(seq []int, n int) bool {
	if len(seq) != n {
		return false
	}
	sorted := slices.Clone(seq)
	slices.Sort(sorted)
	for i, v := range sorted {
		if v != i {
			return false
		}
	}
	return true
}

// Clean returns p with every payload field that does not belong to its type
// cleared. Generated content often fills unrelated fields with zero values.
func Clean(p domain.Puzzle) domain.Puzzle {
	if p.Type != domain.MultipleChoice {
		p.Options, p.CorrectAnswer = nil, nil
	}
	if p.Type != domain.CodeEntry {
		p.CorrectCode = nil
	}
	if p.Type != domain.Ordering {
		p.ItemsToOrder, p.CorrectSequence = nil, nil
	}
	if p.Type != domain.Matching {
		p.MatchingPairs = nil
	}
	return p
}
