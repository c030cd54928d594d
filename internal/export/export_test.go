package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/rflorenc/intune-workbench/internal/models"
)

var exportedAt = time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func script(id, name, payload string) models.Script {
	content, state := models.DecodePayload(payload)
	return models.Script{
		ResourceItem: models.ResourceItem{ID: id, DisplayName: name, Kind: models.KindScript},
		Payload:      payload,
		Content:      content,
		PayloadState: state,
	}
}

func sampleExport() models.ExportData {
	encoded := base64.StdEncoding.EncodeToString([]byte("Write-Host 'hello'"))
	return models.ExportData{
		AllData: models.AllData{
			Profiles: []models.Profile{{
				ResourceItem: models.ResourceItem{ID: "p1", DisplayName: "BitLocker", Description: "Disk encryption", Kind: models.KindProfile},
				Platforms:    "Windows",
				TypeTagValue: "#microsoft.graph.windows10EndpointProtectionConfiguration",
				Settings: []models.Setting{
					{ID: "bitLockerEncryptDevice", Value: true},
					{ID: "bitLockerSystemDrivePolicy", Value: map[string]any{"encryptionMethod": "xtsAes256", "minimumPinLength": 6.0}},
				},
				CreatedAt:     ts("2024-01-01T10:00:00Z"),
				ModifiedAt:    ts("2024-07-01T10:00:00Z"),
				SourceVariant: models.VariantDeviceConfiguration,
			}},
			Scripts: []models.Script{script("s1", "Hello World", encoded)},
			Compliance: []models.CompliancePolicy{{
				ResourceItem:  models.ResourceItem{ID: "c1", DisplayName: "iOS baseline", Kind: models.KindCompliance},
				PolicyTypeTag: "#microsoft.graph.iosCompliancePolicy",
				PlatformLabel: "iOS",
				Raw:           map[string]any{"id": "c1", "osMinimumVersion": "17.0", "passcodeRequired": true},
			}},
			Apps: []models.App{{
				ResourceItem:  models.ResourceItem{ID: "a1", DisplayName: "Company Portal", Kind: models.KindApp},
				Publisher:     "Microsoft",
				PolicyTypeTag: "#microsoft.graph.iosStoreApp",
				PlatformLabel: "iOS",
				PublishedAt:   ts("2023-03-03T00:00:00Z"),
				Raw:           map[string]any{"id": "a1", "appStoreUrl": "https://apps.apple.com/app/id719171358"},
			}},
		},
		ExportedAt: exportedAt,
		ExportedBy: "ops@contoso.com",
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	want := sampleExport()
	doc, err := JSON(want)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("{\n  \"profiles\"")) {
		t.Errorf("document is not 2-space indented: %.40q", doc)
	}
	got, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_EmptySelection(t *testing.T) {
	want := models.ExportData{AllData: models.NewAllData(), ExportedAt: exportedAt, ExportedBy: "System"}
	doc, err := JSON(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc), `"apps": []`) {
		t.Errorf("empty collections should serialize as [], got:\n%s", doc)
	}
	got, err := ParseJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_UnserializableValue(t *testing.T) {
	data := sampleExport()
	data.Profiles[0].Settings = []models.Setting{{ID: "bad", Value: make(chan int)}}

	for name, render := range map[string]Renderer{"json": JSON, "html": Report, "zip": Archive} {
		t.Run(name, func(t *testing.T) {
			out, err := render(data)
			var se *SerializationError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *SerializationError", err)
			}
			if out != nil {
				t.Error("no partial artifact may be returned")
			}
		})
	}
}

func TestReport_Contents(t *testing.T) {
	data := sampleExport()
	out, err := Report(data)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"<title>Intune Configuration Report - 2024-07-15</title>",
		`<a href="#profiles">Configuration Profiles (1)</a>`,
		`<a href="#apps">Mobile Applications (1)</a>`,
		"Profile 1: BitLocker",
		"bitLockerSystemDrivePolicy",
		"Write-Host &#39;hello&#39;",
		"Policy 1: iOS baseline",
		"osMinimumVersion",
		"App 1: Company Portal",
		"Published:",
		"ops@contoso.com",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(html, NoSettingsNotice) {
		t.Error("profile with settings should not show the no-settings notice")
	}
}

func TestReport_NoSettingsAndUndecodable(t *testing.T) {
	data := models.ExportData{
		AllData: models.AllData{
			Profiles: []models.Profile{{
				ResourceItem: models.ResourceItem{ID: "p1", DisplayName: "Empty profile", Kind: models.KindProfile},
				Settings:     []models.Setting{},
			}},
			Scripts:    []models.Script{script("s1", "Broken", "abc")},
			Compliance: []models.CompliancePolicy{},
			Apps:       []models.App{},
		},
		ExportedAt: exportedAt,
	}
	out, err := Report(data)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, NoSettingsNotice) {
		t.Error("missing no-settings notice")
	}
	if !strings.Contains(html, DecodeWarning) {
		t.Error("missing decode warning")
	}
	if strings.Contains(html, `href="#compliance"`) || strings.Contains(html, `href="#apps"`) {
		t.Error("table of contents lists empty kinds")
	}
	if !strings.Contains(html, "<strong>Exported By:</strong> System") {
		t.Error("empty exportedBy should render as System")
	}
}

func TestReport_DecodesLegacyPayload(t *testing.T) {
	s := models.Script{
		ResourceItem: models.ResourceItem{ID: "s1", DisplayName: "Legacy", Kind: models.KindScript},
		Payload:      base64.StdEncoding.EncodeToString([]byte("Get-Date")),
	}
	data := models.ExportData{AllData: models.NewAllData(), ExportedAt: exportedAt}
	data.Scripts = append(data.Scripts, s)
	out, err := Report(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "Get-Date") {
		t.Error("payload without a state should be decoded at render time")
	}
}

func TestReport_EscapesTenantText(t *testing.T) {
	data := models.ExportData{AllData: models.NewAllData(), ExportedAt: exportedAt, ExportedBy: "<b>me</b>"}
	data.Profiles = []models.Profile{{
		ResourceItem: models.ResourceItem{ID: "p1", DisplayName: "<script>alert(1)</script>", Description: `"quoted" & more`, Kind: models.KindProfile},
		Settings:     []models.Setting{{ID: "x", Value: "</pre><img src=x onerror=alert(1)>"}},
	}}
	data.Scripts = []models.Script{script("s1", "s", "<script>evil()</script>")}

	out, err := Report(data)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	for _, bad := range []string{"<script>alert(1)</script>", "<img src=x", "<script>evil()", "<b>me</b>"} {
		if strings.Contains(html, bad) {
			t.Errorf("report contains unescaped %q", bad)
		}
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Error("escaped name not found")
	}
}

func TestReport_DoesNotMutateInput(t *testing.T) {
	data := sampleExport()
	before := sampleExport()
	if _, err := Report(data); err != nil {
		t.Fatal(err)
	}
	if _, err := Archive(data); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, data); diff != "" {
		t.Errorf("renderers mutated input (-before +after):\n%s", diff)
	}
}

func readArchive(t *testing.T, b []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		files[f.Name] = string(body)
	}
	return files
}

func TestArchive_Layout(t *testing.T) {
	data := sampleExport()
	data.Scripts = append(data.Scripts, script("s2", "Broken", "abc"), script("s3", "", ""))

	out, err := Archive(data)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	files := readArchive(t, out)

	var names []string
	for n := range files {
		names = append(names, n)
	}
	want := []string{"intune-config.json", "report.html", "scripts/", "scripts/broken.ps1", "scripts/hello_world.ps1", "scripts/script.ps1"}
	if diff := cmp.Diff(want, names, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}

	if files["scripts/hello_world.ps1"] != "Write-Host 'hello'" {
		t.Errorf("decoded payload = %q", files["scripts/hello_world.ps1"])
	}
	if files["scripts/broken.ps1"] != "abc" {
		t.Errorf("undecodable payload should fall back to the original, got %q", files["scripts/broken.ps1"])
	}
	doc, _ := JSON(data)
	if files["intune-config.json"] != string(doc) {
		t.Error("archived JSON differs from the JSON export")
	}
	if !strings.Contains(files["report.html"], "Intune Configuration Report") {
		t.Error("archived report looks wrong")
	}
}

func TestArchive_NoScripts(t *testing.T) {
	data := models.ExportData{AllData: models.NewAllData(), ExportedAt: exportedAt}
	out, err := Archive(data)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, out)
	if len(files) != 3 {
		t.Errorf("entries = %v, want json, report and scripts/", files)
	}
	if _, ok := files["scripts/"]; !ok {
		t.Error("scripts/ folder missing")
	}
}

func TestScriptFileNames_Collisions(t *testing.T) {
	scripts := []models.Script{
		script("1", "Clean-Up!", ""),
		script("2", "clean up?", ""),
		script("3", "clean_up_2", ""),
		script("4", "Clean Up.", ""),
		script("5", "Déploiement", ""),
	}
	got := ScriptFileNames(scripts)
	want := []string{"clean_up_.ps1", "clean_up__2.ps1", "clean_up_2.ps1", "clean_up__3.ps1", "d_ploiement.ps1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScriptFileNames mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello_world"},
		{"Set-TimeZone.ps1", "set_timezone_ps1"},
		{"", "script"},
		{"ABC123", "abc123"},
	}
	for _, tc := range tests {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormats(t *testing.T) {
	if diff := cmp.Diff([]string{"html", "json", "zip"}, Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	tests := []struct {
		name, file, contentType string
	}{
		{"json", "intune-configuration.json", "application/json"},
		{"html", "intune-report.html", "text/html; charset=utf-8"},
		{"zip", "intune-config-2024-07-15.zip", "application/zip"},
	}
	for _, tc := range tests {
		f, err := Lookup(tc.name)
		if err != nil {
			t.Fatal(err)
		}
		if got := f.FileName(exportedAt); got != tc.file {
			t.Errorf("%s FileName = %q, want %q", tc.name, got, tc.file)
		}
		if f.ContentType != tc.contentType {
			t.Errorf("%s ContentType = %q", tc.name, f.ContentType)
		}
	}
	if _, err := Lookup("pdf"); err == nil {
		t.Error("Lookup(pdf) should fail")
	}
}
