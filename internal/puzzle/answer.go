package puzzle

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/ashureev/time-agent/internal/domain"
)

// Answer renders the correct answer of p for a reveal screen.
func Answer(p domain.Puzzle) string {
	switch p.Type {
	case domain.MultipleChoice:
		if p.CorrectAnswer != nil && *p.CorrectAnswer >= 0 && *p.CorrectAnswer < len(p.Options) {
			return p.Options[*p.CorrectAnswer]
		}
	case domain.CodeEntry:
		if p.CorrectCode != nil {
			return *p.CorrectCode
		}
	case domain.Ordering:
		items := make([]string, 0, len(p.CorrectSequence))
		for _, idx := range p.CorrectSequence {
			if idx >= 0 && idx < len(p.ItemsToOrder) {
				items = append(items, p.ItemsToOrder[idx])
			}
		}
		return strings.Join(items, " -> ")
	case domain.Matching:
		pairs := make([]string, 0, len(p.MatchingPairs))
		for _, pair := range p.MatchingPairs {
			pairs = append(pairs, pair.Left+": "+pair.Right)
		}
		return strings.Join(pairs, ", ")
	}
	return "unavailable"
}

// Shuffle returns the initial arrangement of an ORDERING puzzle as a list of
// original item indices. The arrangement avoids the solved order when the
// puzzle has more than one item.
func Shuffle(p domain.Puzzle, rng *rand.Rand) []int {
	n := len(p.ItemsToOrder)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if n < 2 {
		return order
	}
	for range 8 {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		if !slices.Equal(order, p.CorrectSequence) {
			return order
		}
	}
	// Rotating by one always breaks a solved arrangement.
	return append(order[1:], order[0])
}
