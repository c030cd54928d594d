package search

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rflorenc/intune-workbench/internal/models"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func fixture() []models.Item {
	return []models.Item{
		models.Profile{
			ResourceItem: models.ResourceItem{ID: "p1", DisplayName: "BitLocker", Description: "Disk encryption", Kind: models.KindProfile},
			Platforms:    "Windows",
			TypeTagValue: "#microsoft.graph.windows10EndpointProtectionConfiguration",
		},
		models.Script{
			ResourceItem: models.ResourceItem{ID: "s1", DisplayName: "Cleanup temp", Description: "Removes temp files", Kind: models.KindScript},
		},
		models.CompliancePolicy{
			ResourceItem:  models.ResourceItem{ID: "c1", DisplayName: "iOS minimum OS", Kind: models.KindCompliance},
			PolicyTypeTag: "#microsoft.graph.iosCompliancePolicy",
			PlatformLabel: "iOS",
		},
		models.App{
			ResourceItem:  models.ResourceItem{ID: "a1", DisplayName: "Windows Terminal", Description: "Terminal for encryption admins", Kind: models.KindApp},
			PolicyTypeTag: "#microsoft.graph.windowsMobileMSI",
			PlatformLabel: "Windows",
		},
	}
}

func ids(items []models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Key().ID
	}
	return out
}

func TestFilter_EmptyIsIdentity(t *testing.T) {
	items := fixture()
	got := Filter(items, "", "")
	if diff := cmp.Diff(ids(items), ids(got)); diff != "" {
		t.Errorf("Filter(c, \"\", \"\") changed the collection (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		facet string
		want  []string
	}{
		{"name token", "bitlocker", "", []string{"p1"}},
		{"description token", "ENCRYPTION", "", []string{"p1", "a1"}},
		{"any token matches", "cleanup terminal", "", []string{"s1", "a1"}},
		{"kind matches", "compliance", "", []string{"c1"}},
		{"profile facet uses platform label", "", "windows", []string{"p1", "a1"}},
		{"other kinds use type tag", "", "ioscompliance", []string{"c1"}},
		{"profile facet ignores type tag", "", "endpointprotection", []string{}},
		{"facet excludes scripts", "temp", "windows", []string{}},
		{"query and facet", "encryption", "msi", []string{"a1"}},
		{"no match", "macos", "", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Filter(fixture(), tc.query, tc.facet))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Filter(%q, %q) mismatch (-want +got):\n%s", tc.query, tc.facet, diff)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	items := fixture()
	got := Filter(items, "e", "")
	pos := map[string]int{}
	for i, item := range items {
		pos[item.Key().ID] = i
	}
	for i := 1; i < len(got); i++ {
		if pos[got[i-1].Key().ID] >= pos[got[i].Key().ID] {
			t.Fatalf("Filter output %v is not a subsequence of the input", ids(got))
		}
	}
}

func TestFilter_TypedSlice(t *testing.T) {
	apps := []models.App{
		{ResourceItem: models.ResourceItem{ID: "a1", DisplayName: "Teams", Kind: models.KindApp}},
		{ResourceItem: models.ResourceItem{ID: "a2", DisplayName: "Outlook", Kind: models.KindApp}},
	}
	got := Filter(apps, "outlook", "")
	if len(got) != 1 || got[0].ID != "a2" {
		t.Errorf("Filter(apps) = %+v", got)
	}
}

func TestScore_Weights(t *testing.T) {
	p := models.Profile{
		ResourceItem: models.ResourceItem{ID: "p", DisplayName: "Windows", Description: "windows hardening", Kind: models.KindProfile},
		Platforms:    "Windows",
	}
	if got := Score(p, "windows", now); got != WeightExactName+WeightDescription+WeightPlatform {
		t.Errorf("Score = %v, want %v", got, WeightExactName+WeightDescription+WeightPlatform)
	}
	if got := Score(p, "wind", now); got != WeightName+WeightDescription+WeightPlatform {
		t.Errorf("Score = %v, want %v", got, WeightName+WeightDescription+WeightPlatform)
	}
	if got := Score(p, "", now); got != 0 {
		t.Errorf("Score(empty) = %v, want 0", got)
	}
}

func TestScore_RecencyBonus(t *testing.T) {
	tests := []struct {
		name string
		ts   *time.Time
		want float64
	}{
		{"today", daysAgo(0), 5},
		{"fifteen days", daysAgo(15), 2.5},
		{"thirty days", daysAgo(30), 0},
		{"old", daysAgo(400), 0},
		{"no timestamp", nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := models.Script{ResourceItem: models.ResourceItem{DisplayName: "x"}, ModifiedAt: tc.ts}
			got := Score(s, "x", now) - WeightExactName
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("bonus = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScore_FallsBackToCreated(t *testing.T) {
	s := models.Script{ResourceItem: models.ResourceItem{DisplayName: "x"}, CreatedAt: daysAgo(0)}
	if got := Score(s, "x", now); got != WeightExactName+MaxRecencyBonus {
		t.Errorf("Score = %v", got)
	}
}

func TestRank(t *testing.T) {
	items := []models.Item{
		models.App{ResourceItem: models.ResourceItem{ID: "a1", DisplayName: "Edge beta", Kind: models.KindApp}},
		models.App{ResourceItem: models.ResourceItem{ID: "a2", DisplayName: "Edge", Kind: models.KindApp}},
		models.App{ResourceItem: models.ResourceItem{ID: "a3", DisplayName: "Chrome", Kind: models.KindApp}},
		models.App{ResourceItem: models.ResourceItem{ID: "a4", DisplayName: "Edge dev", Kind: models.KindApp}},
		models.App{ResourceItem: models.ResourceItem{ID: "a5", DisplayName: "Fresh", Kind: models.KindApp, Description: ""}, ModifiedAt: daysAgo(0)},
	}
	got := Rank(items, "edge", now, 0)
	var gotIDs []string
	for _, r := range got {
		gotIDs = append(gotIDs, r.Item.Key().ID)
	}
	if diff := cmp.Diff([]string{"a2", "a1", "a4"}, gotIDs); diff != "" {
		t.Errorf("Rank mismatch (-want +got):\n%s", diff)
	}

	if top := Rank(items, "edge", now, 1); len(top) != 1 || top[0].Item.Key().ID != "a2" {
		t.Errorf("Rank limit 1 = %+v", top)
	}
}
