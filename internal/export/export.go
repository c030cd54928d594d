// Package export renders a selection of tenant items into downloadable
// artifacts. Renderers never mutate their input and either return the whole
// artifact or an error.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// Renderer produces one artifact from export data.
type Renderer func(models.ExportData) ([]byte, error)

// SerializationError reports a failure to build an artifact.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("rendering %s export: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Format describes one downloadable artifact type.
type Format struct {
	Name        string
	ContentType string
	Render      Renderer
	fileName    func(exportedAt time.Time) string
}

// FileName returns the download name for an export taken at exportedAt.
func (f Format) FileName(exportedAt time.Time) string {
	return f.fileName(exportedAt)
}

// Formats maps format names to their renderers.
var Formats = map[string]Format{
	"json": {
		Name:        "json",
		ContentType: "application/json",
		Render:      JSON,
		fileName:    func(time.Time) string { return "intune-configuration.json" },
	},
	"html": {
		Name:        "html",
		ContentType: "text/html; charset=utf-8",
		Render:      Report,
		fileName:    func(time.Time) string { return "intune-report.html" },
	},
	"zip": {
		Name:        "zip",
		ContentType: "application/zip",
		Render:      Archive,
		fileName: func(at time.Time) string {
			return "intune-config-" + at.UTC().Format("2006-01-02") + ".zip"
		},
	},
}

// Lookup returns the named format.
func Lookup(name string) (Format, error) {
	f, ok := Formats[name]
	if !ok {
		return Format{}, fmt.Errorf("unknown export format %q (want one of %v)", name, Names())
	}
	return f, nil
}

// Names lists the registered format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Formats))
	for n := range Formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
