// Package archive implements the persisted topic archive and the merge rules
// that fold generated puzzle sets into it.
package archive

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ashureev/time-agent/internal/domain"
)

// Default retention limits.
const (
	DefaultMaxPuzzlesPerTopic = 50
	DefaultMaxTopics          = 20
)

// Limits bounds what the archive retains.
type Limits struct {
	MaxPuzzlesPerTopic int
	MaxTopics          int
}

// DefaultLimits returns the reference retention limits.
func DefaultLimits() Limits {
	return Limits{
		MaxPuzzlesPerTopic: DefaultMaxPuzzlesPerTopic,
		MaxTopics:          DefaultMaxTopics,
	}
}

// Normalize returns the archive key for a topic.
func Normalize(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// Archive maps normalized topic keys to puzzle sets and remembers the order
// in which keys were first inserted. Eviction follows that order.
type Archive struct {
	order  []string
	topics map[string]*domain.PuzzleSet
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{topics: make(map[string]*domain.PuzzleSet)}
}

// Keys returns the topic keys in insertion order.
func (a *Archive) Keys() []string {
	return slices.Clone(a.order)
}

// Len returns the number of topics held.
func (a *Archive) Len() int {
	return len(a.order)
}

// Get returns a copy of the set stored under key.
func (a *Archive) Get(key string) (domain.PuzzleSet, bool) {
	set, ok := a.topics[key]
	if !ok {
		return domain.PuzzleSet{}, false
	}
	return set.Clone(), true
}

// Put stores set under key, appending key to the insertion order if new.
func (a *Archive) Put(key string, set domain.PuzzleSet) {
	if _, ok := a.topics[key]; !ok {
		a.order = append(a.order, key)
	}
	cp := set.Clone()
	a.topics[key] = &cp
}

// Delete removes key.
func (a *Archive) Delete(key string) {
	if _, ok := a.topics[key]; !ok {
		return
	}
	delete(a.topics, key)
	a.order = slices.DeleteFunc(a.order, func(k string) bool { return k == key })
}

// Clone returns a deep copy of the archive.
func (a *Archive) Clone() *Archive {
	out := New()
	for _, key := range a.order {
		out.Put(key, *a.topics[key])
	}
	return out
}

type archiveJSON struct {
	Order  []string                     `json:"order"`
	Topics map[string]*domain.PuzzleSet `json:"topics"`
}

// MarshalJSON encodes the archive with its explicit key order.
func (a *Archive) MarshalJSON() ([]byte, error) {
	topics := a.topics
	if topics == nil {
		topics = map[string]*domain.PuzzleSet{}
	}
	order := a.order
	if order == nil {
		order = []string{}
	}
	return json.Marshal(archiveJSON{Order: order, Topics: topics})
}

// UnmarshalJSON decodes either the ordered format or a legacy flat
// {topic: set} object. Legacy keys are sorted since JSON objects carry no
// order.
func (a *Archive) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	_, hasOrder := probe["order"]
	_, hasTopics := probe["topics"]

	out := New()
	if hasOrder && hasTopics {
		var doc archiveJSON
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		for _, key := range doc.Order {
			set, ok := doc.Topics[key]
			if !ok || set == nil {
				return fmt.Errorf("order references missing topic %q", key)
			}
			out.Put(key, *set)
		}
		if len(doc.Topics) != out.Len() {
			return fmt.Errorf("archive holds %d topics but order lists %d", len(doc.Topics), out.Len())
		}
	} else {
		legacy := make(map[string]*domain.PuzzleSet, len(probe))
		if err := json.Unmarshal(data, &legacy); err != nil {
			return err
		}
		keys := make([]string, 0, len(legacy))
		for key := range legacy {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if legacy[key] == nil {
				return fmt.Errorf("legacy topic %q is null", key)
			}
			out.Put(key, *legacy[key])
		}
	}

	*a = *out
	return nil
}
