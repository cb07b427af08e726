package archive

import (
	"slices"

	"github.com/ashureev/time-agent/internal/domain"
)

// Report merges static and dynamic puzzle counts per topic. Topics are
// matched case-insensitively; the result is sorted by total, descending,
// with ties keeping static topics first in their catalog order.
func Report(staticKeys []string, static map[string]domain.PuzzleSet, dynamic *Archive) []domain.TopicReport {
	items := make([]domain.TopicReport, 0, len(staticKeys)+dynamic.Len())
	index := make(map[string]int, len(staticKeys))

	for _, topic := range staticKeys {
		n := len(static[topic].Puzzles)
		index[Normalize(topic)] = len(items)
		items = append(items, domain.TopicReport{
			Topic:       topic,
			StaticCount: n,
			Total:       n,
		})
	}

	for _, key := range dynamic.Keys() {
		set, _ := dynamic.Get(key)
		n := len(set.Puzzles)
		if i, ok := index[Normalize(key)]; ok {
			items[i].DynamicCount += n
			items[i].Total = items[i].StaticCount + items[i].DynamicCount
			continue
		}
		index[Normalize(key)] = len(items)
		items = append(items, domain.TopicReport{
			Topic:        key,
			DynamicCount: n,
			Total:        n,
		})
	}

	slices.SortStableFunc(items, func(a, b domain.TopicReport) int {
		return b.Total - a.Total
	})
	return items
}
