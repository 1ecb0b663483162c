package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/cells/{x}/{y}", s.handleGetCell)
			r.Put("/cells", s.handleCommand(OpSet))
			r.Post("/toggle", s.handleCommand(OpToggle))
			r.Post("/step", s.handleCommand(OpStep))
			r.Post("/clear", s.handleCommand(OpClear))
			r.Post("/randomize", s.handleCommand(OpRandomize))
			r.Post("/play", s.handleCommand(OpPlay))
			r.Post("/pause", s.handleCommand(OpPause))
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"sessions": s.sessions.Len(),
		"clients":  s.hub.ClientCount(),
	})
}
