// Package assistant implements the console's assistant actions on top of the
// search and export primitives. Every action is deterministic.
package assistant

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rflorenc/intune-workbench/internal/export"
	"github.com/rflorenc/intune-workbench/internal/models"
	"github.com/rflorenc/intune-workbench/internal/search"
)

// Action names accepted by the console.
const (
	ActionSearch       = "search"
	ActionExplain      = "explain"
	ActionCompare      = "compare"
	ActionExportAssist = "export-assist"
)

// DefaultSearchLimit bounds Search results when no limit is given.
const DefaultSearchLimit = 5

// ErrTooFewItems is returned by Compare when fewer than two items are given.
var ErrTooFewItems = errors.New("at least 2 configurations are required for comparison")

// maxScore is the best possible Score, used to normalize relevance.
const maxScore = search.WeightExactName + search.WeightDescription + search.WeightPlatform + search.MaxRecencyBonus

// SearchResult is one hit of the assistant search action.
type SearchResult struct {
	Key       models.ItemKey `json:"key"`
	Name      string         `json:"name"`
	Kind      models.Kind    `json:"kind"`
	Platform  string         `json:"platform,omitempty"`
	Relevance float64        `json:"relevance"`
	Excerpt   string         `json:"excerpt,omitempty"`
}

// Search ranks items against query and returns at most limit hits.
func Search(items []models.Item, query string, now time.Time, limit int) []SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	ranked := search.Rank(items, query, now, limit)
	out := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		m := r.Item.Meta()
		out = append(out, SearchResult{
			Key:       r.Item.Key(),
			Name:      m.DisplayName,
			Kind:      m.Kind,
			Platform:  r.Item.Platform(),
			Relevance: math.Round(math.Min(1, r.Score/maxScore)*100) / 100,
			Excerpt:   excerpt(m.Description, 160),
		})
	}
	return out
}

// Explanation describes one item in plain language.
type Explanation struct {
	Summary string   `json:"summary"`
	Details []string `json:"details"`
	Impact  string   `json:"impact,omitempty"`
}

// Explain summarizes what an item is and how it is configured.
func Explain(item models.Item) Explanation {
	m := item.Meta()
	platform := orUnknown(item.Platform())

	summary := m.Description
	if summary == "" {
		summary = fmt.Sprintf("This is a %s for %s", singular(m.Kind), platform)
	}
	details := []string{
		"Type: " + singular(m.Kind),
		"Platform: " + platform,
		"Last Modified: " + formatTime(item.Modified()),
	}
	if tag := item.TypeTag(); tag != "" {
		details = append(details, "Source type: "+tag)
	}

	impact := "Apply this configuration to manage device settings"
	switch v := item.(type) {
	case models.Profile:
		details = append(details, fmt.Sprintf("Settings: %d", len(v.Settings)))
		if len(v.Settings) == 0 {
			impact = "This profile configures no settings and has no effect on devices"
		}
	case models.Script:
		details = append(details,
			"Execution context: "+orUnknown(v.ExecutionContext),
			"Run as account: "+orUnknown(v.RunAsAccount),
			"Payload: "+string(v.PayloadState))
		impact = "Runs on targeted devices through the management extension"
	case models.CompliancePolicy:
		impact = "Devices that do not meet this policy are reported as non-compliant"
	case models.App:
		if v.Publisher != "" {
			details = append(details, "Publisher: "+v.Publisher)
		}
		impact = "Makes the application available to targeted users and devices"
	}
	return Explanation{Summary: summary, Details: details, Impact: impact}
}

// ComparedItem is one side of a comparison.
type ComparedItem struct {
	Key        models.ItemKey    `json:"key"`
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties"`
}

// Comparison lists what a set of items share and where they differ.
type Comparison struct {
	Items        []ComparedItem `json:"items"`
	Similarities []string       `json:"similarities"`
	Differences  []string       `json:"differences"`
}

// Compare contrasts two or more items property by property.
func Compare(items []models.Item) (Comparison, error) {
	if len(items) < 2 {
		return Comparison{}, ErrTooFewItems
	}
	out := Comparison{Similarities: []string{}, Differences: []string{}}
	names := map[string]bool{}
	for _, item := range items {
		props := properties(item)
		for k := range props {
			names[k] = true
		}
		out.Items = append(out.Items, ComparedItem{Key: item.Key(), Name: item.Meta().DisplayName, Properties: props})
	}

	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		first, same := out.Items[0].Properties[k], true
		values := make([]string, len(out.Items))
		for i, ci := range out.Items {
			values[i] = fmt.Sprintf("%s=%s", ci.Name, orUnknown(ci.Properties[k]))
			if ci.Properties[k] != first {
				same = false
			}
		}
		if same {
			out.Similarities = append(out.Similarities, fmt.Sprintf("All share %s: %s", k, orUnknown(first)))
		} else {
			out.Differences = append(out.Differences, fmt.Sprintf("%s differs (%s)", k, strings.Join(values, ", ")))
		}
	}
	return out, nil
}

func properties(item models.Item) map[string]string {
	props := map[string]string{
		"kind":     string(item.Key().Kind),
		"platform": item.Platform(),
		"type":     item.TypeTag(),
	}
	switch v := item.(type) {
	case models.Profile:
		props["settings"] = fmt.Sprint(len(v.Settings))
		props["source"] = string(v.SourceVariant)
	case models.Script:
		props["executionContext"] = v.ExecutionContext
		props["runAsAccount"] = v.RunAsAccount
	case models.App:
		props["publisher"] = v.Publisher
	}
	return props
}

// Advice is the export-assist answer.
type Advice struct {
	Format      string   `json:"format"`
	Suggestions []string `json:"suggestions"`
	Notes       []string `json:"notes"`
}

// ExportAdvice recommends an artifact format for a selection and flags
// content that will not render cleanly. format may be empty.
func ExportAdvice(data models.ExportData, format string) Advice {
	adv := Advice{
		Format:      "json",
		Suggestions: []string{"Export as JSON for backup", "Include metadata for documentation"},
		Notes:       []string{},
	}
	switch {
	case format != "":
		if _, err := export.Lookup(format); err != nil {
			adv.Notes = append(adv.Notes, err.Error())
		} else {
			adv.Format = format
		}
	case len(data.Scripts) > 0:
		adv.Format = "zip"
	}
	if len(data.Scripts) > 0 {
		adv.Suggestions = append(adv.Suggestions, "Use the ZIP archive to get each script as a separate .ps1 file")
	}
	adv.Suggestions = append(adv.Suggestions, "Share the HTML report with reviewers who do not use the console")

	if data.Total() == 0 {
		adv.Notes = append(adv.Notes, "The selection is empty; the export will contain no items")
	}
	var undecodable, empty int
	for _, s := range data.Scripts {
		if s.PayloadState == models.PayloadUndecodable {
			undecodable++
		}
	}
	for _, p := range data.Profiles {
		if len(p.Settings) == 0 {
			empty++
		}
	}
	if undecodable > 0 {
		adv.Notes = append(adv.Notes, fmt.Sprintf("%d script(s) could not be decoded and will be exported as stored", undecodable))
	}
	if empty > 0 {
		adv.Notes = append(adv.Notes, fmt.Sprintf("%d profile(s) have no settings", empty))
	}
	return adv
}

func singular(k models.Kind) string {
	switch k {
	case models.KindProfile:
		return "Configuration Profile"
	case models.KindScript:
		return "PowerShell Script"
	case models.KindCompliance:
		return "Compliance Policy"
	case models.KindApp:
		return "Mobile Application"
	}
	return string(k)
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "Unknown"
	}
	return t.UTC().Format("2006-01-02")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
