// Package search narrows and ranks normalized items.
package search

import (
	"strings"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// Filter returns the items matching both query and facet, preserving order.
// An empty query and an empty facet match everything.
func Filter[T models.Item](items []T, query, facet string) []T {
	tokens := strings.Fields(strings.ToLower(query))
	facet = strings.ToLower(strings.TrimSpace(facet))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if MatchesQuery(item, tokens) && MatchesFacet(item, facet) {
			out = append(out, item)
		}
	}
	return out
}

// MatchesQuery reports whether any lowercase token occurs in the item's name,
// kind or description. No tokens matches everything.
func MatchesQuery(item models.Item, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	hay := haystack(item)
	for _, tok := range tokens {
		if strings.Contains(hay, tok) {
			return true
		}
	}
	return false
}

// MatchesFacet reports whether a lowercase facet occurs in the item's
// platform label (profiles) or type tag (everything else). Scripts carry
// neither, so a non-empty facet excludes them.
func MatchesFacet(item models.Item, facet string) bool {
	if facet == "" {
		return true
	}
	target := item.TypeTag()
	if item.Key().Kind == models.KindProfile {
		target = item.Platform()
	}
	return target != "" && strings.Contains(strings.ToLower(target), facet)
}

func haystack(item models.Item) string {
	m := item.Meta()
	return strings.ToLower(m.DisplayName + " " + string(m.Kind) + " " + m.Kind.Label() + " " + m.Description)
}
