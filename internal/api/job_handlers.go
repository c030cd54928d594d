package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListJobs returns every job, optionally narrowed to one session.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.Jobs.List()
	if sid := r.URL.Query().Get("session"); sid != "" {
		filtered := jobs[:0]
		for _, j := range jobs {
			if j.SessionID == sid {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}
