package search

import (
	"sort"
	"strings"
	"time"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// Score weights.
const (
	WeightExactName   = 100.0
	WeightName        = 40.0
	WeightDescription = 15.0
	WeightPlatform    = 10.0
	MaxRecencyBonus   = 5.0
	RecencyWindowDays = 30.0
)

// Score rates how well item matches query at time now.
func Score(item models.Item, query string, now time.Time) float64 {
	return matchScore(item, query) + recencyBonus(item, now)
}

// matchScore is the query-dependent part of Score.
func matchScore(item models.Item, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	m := item.Meta()
	name := strings.ToLower(m.DisplayName)

	var score float64
	switch {
	case name == q:
		score += WeightExactName
	case strings.Contains(name, q):
		score += WeightName
	}
	if strings.Contains(strings.ToLower(m.Description), q) {
		score += WeightDescription
	}
	if p := item.Platform(); p != "" && strings.Contains(strings.ToLower(p), q) {
		score += WeightPlatform
	}
	return score
}

// recencyBonus decays linearly from MaxRecencyBonus to zero over the window.
func recencyBonus(item models.Item, now time.Time) float64 {
	ts := item.Modified()
	if ts == nil {
		ts = item.Created()
	}
	if ts == nil {
		return 0
	}
	ageDays := now.Sub(*ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	bonus := MaxRecencyBonus * (1 - ageDays/RecencyWindowDays)
	if bonus < 0 {
		return 0
	}
	return bonus
}

// Result is one ranked item.
type Result struct {
	Item  models.Item
	Score float64
}

// Rank returns the items that match query, best first. Items of equal score
// keep their input order. limit <= 0 means no limit.
func Rank(items []models.Item, query string, now time.Time, limit int) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		if matchScore(item, query) <= 0 {
			continue
		}
		results = append(results, Result{Item: item, Score: Score(item, query, now)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
