package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/image-compare/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	searchHandler := handlers.NewSearchHandler(s.services.Searcher, s.log)
	compareHandler := handlers.NewCompareHandler(s.services.Searcher, s.services.Comparer, s.log)
	fingerprintHandler := handlers.NewFingerprintHandler(s.services.Fingerprinter, s.log)
	configHandler := handlers.NewConfigHandler(s.config)
	jobsHandler := handlers.NewJobsHandler(s.services.Searcher, s.services.Comparer, s.jobs, s.config.Search.MaxPages, s.log)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}` + "\n"))
	})

	// Search-driven endpoints
	s.router.Get("/api/search", searchHandler.Search)
	s.router.Get("/api/compare", compareHandler.SearchAndCompare)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)
		r.Post("/compare", compareHandler.CompareCandidates)
		r.Get("/fingerprint", fingerprintHandler.Get)

		// Background comparisons
		r.Route("/compare/jobs", func(r chi.Router) {
			r.Post("/", jobsHandler.Start)
			r.Get("/", jobsHandler.List)
			r.Get("/{jobId}", jobsHandler.Status)
			r.Get("/{jobId}/events", jobsHandler.Events)
			r.Delete("/{jobId}", jobsHandler.Cancel)
		})
	})
}
