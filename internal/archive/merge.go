package archive

import (
	"github.com/ashureev/time-agent/internal/domain"
)

// MergeResult describes what a merge changed.
type MergeResult struct {
	Key     string
	Added   int
	Dropped int
	Evicted string
}

// Merge folds a generated set into the archive.
//
// Puzzles whose question already exists under the topic are skipped, the
// list is truncated to the per-topic cap keeping the earliest entries, and
// when the topic cap is exceeded the oldest-inserted key is evicted. The
// eviction order is insertion order, not recency of use. Merging a set whose
// puzzles are all present is a no-op.
func Merge(a *Archive, set domain.PuzzleSet, limits Limits) MergeResult {
	key := Normalize(set.Topic)
	res := MergeResult{Key: key}

	current, ok := a.Get(key)
	if !ok {
		current = set.Clone()
		current.Puzzles = nil
	}

	seen := make(map[string]struct{}, len(current.Puzzles)+len(set.Puzzles))
	for _, p := range current.Puzzles {
		seen[p.Question] = struct{}{}
	}

	puzzles := current.Puzzles
	for _, p := range set.Puzzles {
		if _, dup := seen[p.Question]; dup {
			continue
		}
		seen[p.Question] = struct{}{}
		puzzles = append(puzzles, p)
	}

	if limits.MaxPuzzlesPerTopic > 0 && len(puzzles) > limits.MaxPuzzlesPerTopic {
		res.Dropped = len(puzzles) - limits.MaxPuzzlesPerTopic
		puzzles = puzzles[:limits.MaxPuzzlesPerTopic]
	}
	if added := len(puzzles) - len(current.Puzzles); added > 0 {
		res.Added = added
	}

	current.Puzzles = puzzles
	current.TotalRooms = len(puzzles)
	a.Put(key, current)

	if limits.MaxTopics > 0 && a.Len() > limits.MaxTopics {
		res.Evicted = a.order[0]
		a.Delete(res.Evicted)
	}
	return res
}
