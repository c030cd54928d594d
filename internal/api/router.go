package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rflorenc/intune-workbench/internal/config"
	"github.com/rflorenc/intune-workbench/internal/graph"
	"github.com/rflorenc/intune-workbench/internal/models"
)

// Server holds shared state for all API handlers.
type Server struct {
	Sessions *models.SessionStore
	Jobs     *models.JobStore
	Graph    config.Graph
	// Operator is the exportedBy label for sessions that do not name one.
	Operator     string
	GraphOptions []graph.Option
	Log          *zap.Logger

	now func() time.Time
}

// NewServer creates a Server with empty stores.
func NewServer(cfg *config.Config, log *zap.Logger, opts ...graph.Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Sessions:     models.NewSessionStore(),
		Jobs:         models.NewJobStore(),
		Graph:        cfg.Graph,
		Operator:     cfg.Operator,
		GraphOptions: opts,
		Log:          log,
		now:          time.Now,
	}
}

// aggregator builds the loader fan-out for one session's token.
func (s *Server) aggregator(sess *models.Session) *graph.Aggregator {
	client := graph.NewClient(s.Graph, graph.StaticToken(sess.BearerToken()), s.Log, s.GraphOptions...)
	return graph.NewAggregator(graph.NewLoaders(client, s.Log), s.Log)
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.Log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Sessions
		r.Post("/sessions", s.CreateSession)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)

		// Tenant data
		r.Post("/sessions/{id}/load", s.LoadSession)
		r.Get("/sessions/{id}/data", s.GetData)
		r.Get("/sessions/{id}/items/{kind}", s.ListItems)
		r.Post("/sessions/{id}/search", s.SearchItems)

		// Artifacts and assistant
		r.Post("/sessions/{id}/export/{format}", s.ExportItems)
		r.Post("/sessions/{id}/assistant/{action}", s.RunAssistant)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
