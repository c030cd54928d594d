package graph

import (
	"sort"
	"strings"
)

// UnknownPlatform is the label for type tags with no known prefix.
const UnknownPlatform = "Unknown"

var platformPrefixes = map[string]string{
	"windows":        "Windows",
	"win32":          "Windows",
	"win":            "Windows",
	"officesuite":    "Windows",
	"microsoftstore": "Windows",
	"ios":            "iOS",
	"managedios":     "iOS",
	"macos":          "macOS",
	"android":        "Android",
	"managedandroid": "Android",
	"aosp":           "Android",
	"linux":          "Linux",
	"web":            "Web",
}

// prefixesByLength is platformPrefixes' keys, longest first.
var prefixesByLength = func() []string {
	keys := make([]string, 0, len(platformPrefixes))
	for k := range platformPrefixes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// PlatformLabel derives a human platform label from a type tag such as
// "#microsoft.graph.windows10CompliancePolicy" by looking up the last
// dot-delimited segment.
func PlatformLabel(typeTag string) string {
	tag := strings.TrimPrefix(strings.TrimSpace(typeTag), "#")
	if i := strings.LastIndex(tag, "."); i >= 0 {
		tag = tag[i+1:]
	}
	tag = strings.ToLower(tag)
	if tag == "" {
		return UnknownPlatform
	}
	for _, prefix := range prefixesByLength {
		if strings.HasPrefix(tag, prefix) {
			return platformPrefixes[prefix]
		}
	}
	return UnknownPlatform
}

// platformsLabel maps a settings-catalog platforms value ("windows10",
// "macOS", "iOS,android") to labels joined in first-seen order.
func platformsLabel(platforms string) string {
	var labels []string
	seen := map[string]bool{}
	for _, p := range strings.Split(platforms, ",") {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "none") {
			continue
		}
		l := PlatformLabel(p)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return UnknownPlatform
	}
	return strings.Join(labels, ", ")
}
