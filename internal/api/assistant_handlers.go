package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/intune-workbench/internal/assistant"
	"github.com/rflorenc/intune-workbench/internal/models"
)

type assistantRequest struct {
	Query  string   `json:"query"`
	Limit  int      `json:"limit"`
	Keys   []string `json:"keys"`
	Format string   `json:"format"`
}

// RunAssistant dispatches one of the console assistant actions.
func (s *Server) RunAssistant(w http.ResponseWriter, r *http.Request) {
	sess, snap, ok := s.sessionSnapshot(w, r)
	if !ok {
		return
	}
	var req assistantRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	switch action := chi.URLParam(r, "action"); action {
	case assistant.ActionSearch:
		limit := req.Limit
		if limit <= 0 {
			limit = assistant.DefaultSearchLimit
		}
		writeJSON(w, http.StatusOK, assistant.Search(snap.Data.All(), req.Query, s.now(), limit))

	case assistant.ActionExplain:
		if len(req.Keys) != 1 {
			writeError(w, http.StatusBadRequest, "explain takes exactly one key")
			return
		}
		key, err := models.ParseItemKey(req.Keys[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		item, found := snap.Data.Find(key)
		if !found {
			writeError(w, http.StatusNotFound, "item not found: "+key.String())
			return
		}
		writeJSON(w, http.StatusOK, assistant.Explain(item))

	case assistant.ActionCompare:
		items, err := resolveItems(snap, req.Keys)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cmp, err := assistant.Compare(items)
		if err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, cmp)

	case assistant.ActionExportAssist:
		sel, err := selection(snap, req.Keys)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		data := models.Select(snap.Data, sel, sess.Operator, s.now())
		writeJSON(w, http.StatusOK, assistant.ExportAdvice(data, req.Format))

	default:
		writeError(w, http.StatusBadRequest, "unknown assistant action: "+action)
	}
}

// resolveItems looks keys up in request order, skipping keys with no item.
func resolveItems(snap *models.Snapshot, keys []string) ([]models.Item, error) {
	items := make([]models.Item, 0, len(keys))
	for _, raw := range keys {
		key, err := models.ParseItemKey(raw)
		if err != nil {
			return nil, err
		}
		if item, ok := snap.Data.Find(key); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
