package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	ingest *ingest.Service
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, ingestSvc *ingest.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		ingest: ingestSvc,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Post("/log", s.handleLog)

		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{id}/exercises", s.handlePlanExercises)

		r.Get("/sessions", s.handleQuerySessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Patch("/logs/{id}", s.handleUpdateLog)
		r.Delete("/logs/{id}", s.handleDeleteLog)

		r.Get("/exercises/history", s.handleExerciseHistory)

		r.Get("/stats/volume", s.handleVolumeSummary)
	})
}
