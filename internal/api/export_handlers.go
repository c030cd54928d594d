package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rflorenc/intune-workbench/internal/export"
	"github.com/rflorenc/intune-workbench/internal/models"
)

// ExportItems renders the selected items in the {format} artifact and sends it
// as a download. Each export is recorded as a job.
func (s *Server) ExportItems(w http.ResponseWriter, r *http.Request) {
	sess, snap, ok := s.sessionSnapshot(w, r)
	if !ok {
		return
	}
	format, err := export.Lookup(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	sel, err := selection(snap, req.Keys)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data := models.Select(snap.Data, sel, sess.Operator, s.now())
	job := s.Jobs.Create("export", sess.ID)
	job.AppendLog(fmt.Sprintf("Exporting %d items as %s", data.Total(), format.Name))

	body, err := format.Render(data)
	if err != nil {
		job.AppendLog("ERROR: " + err.Error())
		job.Fail(err.Error())
		var se *export.SerializationError
		if errors.As(err, &se) {
			s.Log.Error("export failed", zap.String("format", se.Format), zap.Error(se.Err))
		}
		writeError(w, errorStatus(err), err.Error())
		return
	}
	name := format.FileName(data.ExportedAt)
	job.AppendLog(fmt.Sprintf("Wrote %s (%d bytes)", name, len(body)))
	job.Complete()

	w.Header().Set("Content-Type", format.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Job-ID", job.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
