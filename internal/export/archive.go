package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// Archive entry paths.
const (
	ArchiveDataPath   = "intune-config.json"
	ArchiveReportPath = "report.html"
	ArchiveScriptsDir = "scripts/"
)

// Archive bundles the JSON document, the HTML report and one .ps1 file per
// script into a zip archive.
func Archive(data models.ExportData) ([]byte, error) {
	doc, err := JSON(data)
	if err != nil {
		return nil, err
	}
	report, err := Report(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := data.ExportedAt
	if modified.IsZero() {
		modified = time.Now()
	}

	if err := writeEntry(zw, ArchiveDataPath, doc, modified); err != nil {
		return nil, &SerializationError{Format: "zip", Err: err}
	}
	if err := writeEntry(zw, ArchiveReportPath, report, modified); err != nil {
		return nil, &SerializationError{Format: "zip", Err: err}
	}
	if _, err := zw.CreateHeader(&zip.FileHeader{Name: ArchiveScriptsDir, Modified: modified}); err != nil {
		return nil, &SerializationError{Format: "zip", Err: err}
	}
	for i, name := range ScriptFileNames(data.Scripts) {
		content, _ := scriptContent(data.Scripts[i])
		if err := writeEntry(zw, ArchiveScriptsDir+name, []byte(content), modified); err != nil {
			return nil, &SerializationError{Format: "zip", Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &SerializationError{Format: "zip", Err: err}
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, content []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// SanitizeFileName lower-cases name and replaces every character outside
// [a-z0-9] with an underscore.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "script"
	}
	return b.String()
}

// ScriptFileNames returns one unique .ps1 file name per script, in order.
// A name already taken gets the first free _2, _3, ... suffix.
func ScriptFileNames(scripts []models.Script) []string {
	taken := make(map[string]bool, len(scripts))
	names := make([]string, len(scripts))
	for i, s := range scripts {
		base := SanitizeFileName(s.DisplayName)
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		taken[name] = true
		names[i] = name + ".ps1"
	}
	return names
}
