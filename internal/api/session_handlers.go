package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/intune-workbench/internal/graph"
	"github.com/rflorenc/intune-workbench/internal/models"
)

type sessionView struct {
	*models.Session
	LoadedAt string              `json:"loaded_at,omitempty"`
	Counts   map[models.Kind]int `json:"counts"`
}

func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Operator string `json:"operator"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(req.Token, "Bearer "))
	if token == "" {
		writeError(w, http.StatusUnauthorized, graph.ErrAuthRequired.Error())
		return
	}
	operator := strings.TrimSpace(req.Operator)
	if operator == "" {
		operator = s.Operator
	}
	sess := models.NewSession(operator, token)
	s.Sessions.Create(sess)
	s.Log.Sugar().Infof("session %s signed in as %s", sess.ID, operator)
	writeJSON(w, http.StatusCreated, s.viewSession(sess))
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.Get(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s.viewSession(sess))
}

// DeleteSession signs the operator out and discards the loaded data.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.Log.Sugar().Infof("session %s signed out", id)
	w.WriteHeader(http.StatusNoContent)
}

// LoadSession starts an async job that reloads all tenant collections and
// replaces the session snapshot on completion.
func (s *Server) LoadSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := s.Sessions.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	job := s.Jobs.Create("load", id)
	agg := s.aggregator(sess)

	go func() {
		job.AppendLog("Loading tenant configuration for " + sess.Operator)
		res := agg.LoadAll(context.Background(), job.AppendLog)
		if !s.Sessions.ReplaceSnapshot(id, &res) {
			job.Fail("session signed out during load")
			return
		}
		job.AppendLog(fmt.Sprintf("Loaded %d items", res.Data.Total()))
		if len(res.Failures) > 0 && res.Data.Total() == 0 {
			job.AppendLog("ERROR: no collection could be loaded")
			job.Fail("no collection could be loaded")
			return
		}
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (s *Server) viewSession(sess *models.Session) sessionView {
	v := sessionView{Session: sess, Counts: map[models.Kind]int{}}
	if snap, ok := s.Sessions.Snapshot(sess.ID); ok {
		for _, k := range models.Kinds {
			v.Counts[k] = snap.Data.Count(k)
		}
		if !snap.LoadedAt.IsZero() {
			v.LoadedAt = snap.LoadedAt.UTC().Format(time.RFC3339)
		}
	}
	return v
}
