package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// Report notices.
const (
	NoSettingsNotice      = "No settings configured for this profile"
	DecodeWarning         = "Error decoding script content"
	noValue               = "—"
	reportTimestampLayout = "Jan 2, 2006 15:04 MST"
)

//go:embed report.html.tmpl
var reportSource string

var reportTemplate = template.Must(template.New("report").Parse(reportSource))

type sectionView struct {
	Anchor string
	Label  string
	Count  int
}

type settingView struct {
	ID    string
	Value string
}

type profileView struct {
	Index       int
	Name        string
	Platform    string
	Badge       string
	TypeTag     string
	ID          string
	Description string
	Created     string
	Modified    string
	Settings    []settingView
}

type scriptView struct {
	Index            int
	Name             string
	ID               string
	Description      string
	ExecutionContext string
	RunAsAccount     string
	Created          string
	Modified         string
	Content          string
	Warning          bool
}

type recordView struct {
	Index       int
	Name        string
	Badge       string
	ID          string
	Description string
	Publisher   string
	TypeTag     string
	Published   string
	Created     string
	Modified    string
	Raw         string
}

type reportView struct {
	ReportDate string
	Generated  string
	ExportedBy string
	Total      int
	Counts     []sectionView
	Sections   []sectionView
	Profiles   []profileView
	Scripts    []scriptView
	Compliance []recordView
	Apps       []recordView

	NoSettingsNotice string
	DecodeWarning    string
}

// Report renders a self-contained HTML report. All tenant-supplied text is
// escaped by html/template.
func Report(data models.ExportData) ([]byte, error) {
	view, err := buildReport(data)
	if err != nil {
		return nil, &SerializationError{Format: "html", Err: err}
	}
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, &SerializationError{Format: "html", Err: err}
	}
	return buf.Bytes(), nil
}

func buildReport(data models.ExportData) (*reportView, error) {
	exportedBy := data.ExportedBy
	if exportedBy == "" {
		exportedBy = "System"
	}
	v := &reportView{
		ReportDate:       data.ExportedAt.UTC().Format("2006-01-02"),
		Generated:        data.ExportedAt.UTC().Format(reportTimestampLayout),
		ExportedBy:       exportedBy,
		Total:            data.Total(),
		NoSettingsNotice: NoSettingsNotice,
		DecodeWarning:    DecodeWarning,
	}
	for _, k := range models.Kinds {
		s := sectionView{Anchor: k.Collection(), Label: k.Label(), Count: data.Count(k)}
		v.Counts = append(v.Counts, s)
		if s.Count > 0 {
			v.Sections = append(v.Sections, s)
		}
	}

	for i, p := range data.Profiles {
		pv := profileView{
			Index:       i + 1,
			Name:        p.DisplayName,
			Platform:    orDash(p.Platforms),
			Badge:       platformBadge(p.Platforms),
			TypeTag:     orDefault(p.TypeTagValue, "Device Configuration"),
			ID:          p.ID,
			Description: orDash(p.Description),
			Created:     formatTime(p.CreatedAt),
			Modified:    formatTime(p.ModifiedAt),
		}
		for _, s := range p.Settings {
			value, err := prettyJSON(s.Value)
			if err != nil {
				return nil, fmt.Errorf("profile %s setting %s: %w", p.ID, s.ID, err)
			}
			pv.Settings = append(pv.Settings, settingView{ID: orDefault(s.ID, "N/A"), Value: value})
		}
		v.Profiles = append(v.Profiles, pv)
	}

	for i, s := range data.Scripts {
		content, state := scriptContent(s)
		sv := scriptView{
			Index:            i + 1,
			Name:             s.DisplayName,
			ID:               s.ID,
			Description:      orDash(s.Description),
			ExecutionContext: orDefault(s.ExecutionContext, "System"),
			RunAsAccount:     orDefault(s.RunAsAccount, "System"),
			Created:          formatTime(s.CreatedAt),
			Modified:         formatTime(s.ModifiedAt),
			Content:          orDash(content),
			Warning:          state == models.PayloadUndecodable,
		}
		v.Scripts = append(v.Scripts, sv)
	}

	for i, c := range data.Compliance {
		rv, err := record(i, c, c.Raw)
		if err != nil {
			return nil, err
		}
		v.Compliance = append(v.Compliance, rv)
	}
	for i, a := range data.Apps {
		rv, err := record(i, a, a.Raw)
		if err != nil {
			return nil, err
		}
		rv.Publisher = orDash(a.Publisher)
		if a.PublishedAt != nil {
			rv.Published = formatTime(a.PublishedAt)
		}
		v.Apps = append(v.Apps, rv)
	}
	return v, nil
}

// record builds the definition block shared by compliance policies and apps.
// The raw source record is shown when present, the normalized item otherwise.
func record(i int, item models.Item, raw map[string]any) (recordView, error) {
	m := item.Meta()
	var src any = item
	if raw != nil {
		src = raw
	}
	pretty, err := prettyJSON(src)
	if err != nil {
		return recordView{}, fmt.Errorf("%s %s: %w", m.Kind, m.ID, err)
	}
	return recordView{
		Index:       i + 1,
		Name:        m.DisplayName,
		Badge:       orDefault(item.Platform(), "Multi-Platform"),
		ID:          m.ID,
		Description: orDash(m.Description),
		TypeTag:     orDefault(item.TypeTag(), "Unknown"),
		Created:     formatTime(item.Created()),
		Modified:    formatTime(item.Modified()),
		Raw:         pretty,
	}, nil
}

// scriptContent returns the script body to show or write, decoding on the
// fly when the item was built without a payload state.
func scriptContent(s models.Script) (string, models.PayloadState) {
	if s.PayloadState == "" && s.Payload != "" {
		return models.DecodePayload(s.Payload)
	}
	return s.Content, s.PayloadState
}

func prettyJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func platformBadge(platform string) string {
	p := strings.ToLower(platform)
	switch {
	case strings.Contains(p, "windows"):
		return "badge-blue"
	case strings.Contains(p, "macos"):
		return "badge-purple"
	case strings.Contains(p, "ios"):
		return "badge-gray"
	case strings.Contains(p, "android"):
		return "badge-green"
	}
	return "badge-blue"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return noValue
	}
	return t.UTC().Format(reportTimestampLayout)
}

func orDash(s string) string { return orDefault(s, noValue) }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
