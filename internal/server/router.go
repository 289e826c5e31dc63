package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hooktap/hooktap/internal/handlers"
	"github.com/hooktap/hooktap/internal/middleware"
)

// NewRouter constructs a ServeMux with the receiver's routes registered.
func NewRouter(h *handlers.WebhookHandler, ws *handlers.WSHandler) http.Handler {
	mux := http.NewServeMux()

	// Ingress
	mux.HandleFunc("POST /webhook", h.HandleIngress)

	// Query surface
	mux.HandleFunc("GET /webhooks", h.HandleList)
	mux.HandleFunc("GET /webhooks/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /webhooks", h.HandleClear)
	mux.HandleFunc("GET /stats", h.HandleStats)
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Realtime observer channel
	mux.HandleFunc("GET /ws", ws.HandleWS)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
