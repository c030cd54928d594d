package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/intune-workbench/internal/assistant"
	"github.com/rflorenc/intune-workbench/internal/models"
	"github.com/rflorenc/intune-workbench/internal/search"
)

// sessionSnapshot resolves the {id} session and its current snapshot, writing
// a 404 when either is missing.
func (s *Server) sessionSnapshot(w http.ResponseWriter, r *http.Request) (*models.Session, *models.Snapshot, bool) {
	id := chi.URLParam(r, "id")
	sess := s.Sessions.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}
	snap, ok := s.Sessions.Snapshot(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}
	return sess, snap, true
}

// GetData returns the whole snapshot: all four collections plus per-kind
// load failures.
func (s *Server) GetData(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := s.sessionSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListItems returns one collection narrowed by the q and facet query params.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := s.sessionSnapshot(w, r)
	if !ok {
		return
	}
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	items := search.Filter(snap.Data.Items(kind), q.Get("q"), q.Get("facet"))
	writeJSON(w, http.StatusOK, items)
}

// SearchItems ranks every item in the snapshot against a free-text query.
func (s *Server) SearchItems(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := s.sessionSnapshot(w, r)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = assistant.DefaultSearchLimit
	}
	writeJSON(w, http.StatusOK, assistant.Search(snap.Data.All(), req.Query, s.now(), limit))
}

// selection resolves raw composite keys against a snapshot. No keys selects
// everything.
func selection(snap *models.Snapshot, keys []string) (models.Selection, error) {
	if len(keys) == 0 {
		return models.SelectionOf(snap.Data.All()), nil
	}
	return models.ParseSelection(keys)
}
