package classification

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// countOccurrences counts non-overlapping matches of an already lowercased
// keyword in already lowercased text.
func countOccurrences(lowerText, keyword string) int {
	if keyword == "" {
		return 0
	}
	return strings.Count(lowerText, keyword)
}

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

func nonSpaceLength(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func clampConfidence(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	set := make(stringSet, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// orderedSet dedupes while keeping first-seen order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (o *orderedSet) add(v string) bool {
	if _, ok := o.seen[v]; ok {
		return false
	}
	o.seen[v] = struct{}{}
	o.items = append(o.items, v)
	return true
}

func (o *orderedSet) values() []string {
	if o.items == nil {
		return []string{}
	}
	return o.items
}
