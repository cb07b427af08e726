package archive

import "strings"

// Matcher picks the archive key that best corresponds to a free-text topic.
type Matcher interface {
	BestMatch(query string, keys []string) (string, bool)
}

// SubstringMatcher matches when the normalized query contains the normalized
// key or the key contains the query. The first matching key in the given
// order wins. It is a heuristic, not an exact lookup.
type SubstringMatcher struct{}

// BestMatch implements Matcher.
func (SubstringMatcher) BestMatch(query string, keys []string) (string, bool) {
	q := Normalize(query)
	if q == "" {
		return "", false
	}
	for _, key := range keys {
		k := Normalize(key)
		if k == "" {
			continue
		}
		if strings.Contains(q, k) || strings.Contains(k, q) {
			return key, true
		}
	}
	return "", false
}
