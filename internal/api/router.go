package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// apiPrefix is the base path for all versioned routes.
const apiPrefix = "/api/v1"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route(apiPrefix, func(r chi.Router) {
		s.bind(r, http.MethodGet, "/health", s.handleHealth)

		// Device table
		s.bind(r, http.MethodGet, "/devices", s.handleListDevices)
		s.bind(r, http.MethodPost, "/devices", s.handleCreateDevice)
		s.bind(r, http.MethodGet, "/devices/{id}", s.handleGetDevice)
		s.bind(r, http.MethodDelete, "/devices/{id}", s.handleDeleteDevice)
		s.bind(r, http.MethodGet, "/devices/{id}/status", s.handleDeviceStatus)
		s.bind(r, http.MethodGet, "/devices/{id}/snapshot", s.handleDeviceSnapshot)

		// Register access
		s.bind(r, http.MethodGet, "/devices/{id}/registers/{name}", s.handleReadRegister)
		s.bind(r, http.MethodPut, "/devices/{id}/registers/{name}", s.handleWriteRegister)

		// Batch dispatch
		s.bind(r, http.MethodPost, "/batch", s.handleBatch)

		// Bus scan jobs
		s.bind(r, http.MethodPost, "/scan", s.handleStartScan)
		s.bind(r, http.MethodGet, "/scan/{jobID}", s.handleGetScan)

		// WebSocket
		s.bind(r, http.MethodGet, "/ws", s.handleWebSocket)
	})

	return r
}

// bind registers a handler after claiming the route. A route that was
// already claimed is skipped, so a path can never dispatch to two
// handlers.
func (s *Server) bind(r chi.Router, method, pattern string, h http.HandlerFunc) {
	route := method + " " + apiPrefix + pattern
	if !s.routes.Claim(route) {
		s.logger.Warn("route already bound, skipping", "route", route)
		return
	}
	r.Method(method, pattern, h)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": len(s.manager.ListDevices()),
	})
}
