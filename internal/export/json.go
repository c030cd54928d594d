package export

import (
	"encoding/json"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// JSON renders the export data as a 2-space indented document.
func JSON(data models.ExportData) ([]byte, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, &SerializationError{Format: "json", Err: err}
	}
	return append(out, '\n'), nil
}

// ParseJSON reads a document produced by JSON back into export data.
func ParseJSON(b []byte) (models.ExportData, error) {
	var data models.ExportData
	if err := json.Unmarshal(b, &data); err != nil {
		return models.ExportData{}, err
	}
	return data, nil
}
