package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)

	// Analyze
	mux.Handle("POST /api/v1/analyze", chain(http.HandlerFunc(h.Analyze)))

	// Runs
	mux.Handle("GET /api/v1/runs/current", chain(http.HandlerFunc(h.GetCurrentRun)))
	mux.Handle("POST /api/v1/runs/current/cancel", chain(http.HandlerFunc(h.CancelCurrentRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))

	// Models
	mux.Handle("GET /api/v1/models", chain(http.HandlerFunc(h.ListModels)))
}
