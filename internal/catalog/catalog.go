// Package catalog holds the built-in puzzle sets bundled with the server.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/puzzle"
)

//go:embed data/*.json
var dataFS embed.FS

// Catalog is an ordered, read-only collection of static puzzle sets keyed
// by topic.
type Catalog struct {
	keys []string
	sets map[string]domain.PuzzleSet
}

// Load parses the embedded puzzle sets. Files are read in name order, which
// fixes the key order used for topic matching.
func Load() (*Catalog, error) {
	return LoadFS(dataFS, "data")
}

// LoadFS parses every *.json puzzle set under dir in fsys. Puzzles that fail
// structural checks are skipped with a warning.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	c := &Catalog{sets: make(map[string]domain.PuzzleSet)}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		var set domain.PuzzleSet
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if set.Topic == "" {
			return nil, fmt.Errorf("parse %s: missing topic", entry.Name())
		}
		if _, dup := c.sets[set.Topic]; dup {
			return nil, fmt.Errorf("parse %s: duplicate topic %q", entry.Name(), set.Topic)
		}

		valid := set.Puzzles[:0]
		for _, p := range set.Puzzles {
			if err := puzzle.Check(p); err != nil {
				slog.Warn("Skipping invalid catalog puzzle", "file", entry.Name(), "error", err)
				continue
			}
			valid = append(valid, p)
		}
		set.Puzzles = valid
		set.TotalRooms = len(valid)

		c.keys = append(c.keys, set.Topic)
		c.sets[set.Topic] = set
	}
	return c, nil
}

// Keys returns the topics in catalog order.
func (c *Catalog) Keys() []string {
	return slices.Clone(c.keys)
}

// Get returns a copy of the set for topic.
func (c *Catalog) Get(topic string) (domain.PuzzleSet, bool) {
	set, ok := c.sets[topic]
	if !ok {
		return domain.PuzzleSet{}, false
	}
	return set.Clone(), true
}

// Sets returns all sets keyed by topic.
func (c *Catalog) Sets() map[string]domain.PuzzleSet {
	out := make(map[string]domain.PuzzleSet, len(c.sets))
	for k, v := range c.sets {
		out[k] = v.Clone()
	}
	return out
}
