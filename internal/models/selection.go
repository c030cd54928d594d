package models

import (
	"fmt"
	"strings"
	"time"
)

const keySeparator = "-"

// ItemKey identifies one item across all kinds.
type ItemKey struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// String renders the composite "{kind}-{id}" form used by the browser UI.
func (k ItemKey) String() string {
	return string(k.Kind) + keySeparator + k.ID
}

// ParseItemKey parses a composite "{kind}-{id}" key. Identifiers are GUIDs and
// contain the separator themselves, so only the first occurrence splits.
func ParseItemKey(s string) (ItemKey, error) {
	kindPart, id, ok := strings.Cut(s, keySeparator)
	if !ok || id == "" {
		return ItemKey{}, fmt.Errorf("malformed item key %q", s)
	}
	kind, err := ParseKind(kindPart)
	if err != nil {
		return ItemKey{}, fmt.Errorf("item key %q: %w", s, err)
	}
	return ItemKey{Kind: kind, ID: id}, nil
}

// Selection is a set of item keys.
type Selection map[ItemKey]struct{}

// NewSelection builds a selection from keys.
func NewSelection(keys ...ItemKey) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// ParseSelection parses composite keys into a selection.
func ParseSelection(raw []string) (Selection, error) {
	s := make(Selection, len(raw))
	for _, r := range raw {
		k, err := ParseItemKey(r)
		if err != nil {
			return nil, err
		}
		s[k] = struct{}{}
	}
	return s, nil
}

// SelectionOf selects exactly the given items.
func SelectionOf(items []Item) Selection {
	s := make(Selection, len(items))
	for _, item := range items {
		s[item.Key()] = struct{}{}
	}
	return s
}

func (s Selection) Add(k ItemKey)      { s[k] = struct{}{} }
func (s Selection) Remove(k ItemKey)   { delete(s, k) }
func (s Selection) Has(k ItemKey) bool { _, ok := s[k]; return ok }

// Select copies the selected items out of all, in All-Data order. Keys with no
// matching item are ignored.
func Select(all AllData, sel Selection, exportedBy string, at time.Time) ExportData {
	return ExportData{
		AllData: AllData{
			Profiles:   pick(all.Profiles, sel),
			Scripts:    pick(all.Scripts, sel),
			Compliance: pick(all.Compliance, sel),
			Apps:       pick(all.Apps, sel),
		},
		ExportedAt: at,
		ExportedBy: exportedBy,
	}
}

func pick[T Item](items []T, sel Selection) []T {
	out := []T{}
	for _, item := range items {
		if sel.Has(item.Key()) {
			out = append(out, item)
		}
	}
	return out
}
