package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hooktap/hooktap/internal/models"
	"github.com/hooktap/hooktap/internal/store"
)

// WebhookService is the receiver surface the HTTP handlers depend on.
type WebhookService interface {
	Ingest(ctx context.Context, webhook *models.Webhook) *models.Webhook
	List() []*models.Webhook
	Get(id string) (*models.Webhook, error)
	Clear(ctx context.Context) int
	Stats() models.StatsResponse
	Health() models.HealthResponse
}

// WebhookHandler serves the ingress endpoint and the query surface.
type WebhookHandler struct {
	service WebhookService
}

// NewWebhookHandler constructs a handler around the given service.
func NewWebhookHandler(service WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// ingressEnvelope probes the inbound payload for the optional eventType and
// data fields. Any other shape of payload is accepted as-is.
type ingressEnvelope struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// HandleIngress handles POST /webhook. Any JSON body is accepted; the whole
// payload is retained verbatim alongside the derived fields.
func (h *WebhookHandler) HandleIngress(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	// Non-object payloads simply yield no envelope fields.
	var envelope ingressEnvelope
	_ = json.Unmarshal(body, &envelope)

	eventType := envelope.EventType
	if eventType == "" {
		eventType = models.EventTypeUnknown
	}

	data := envelope.Data
	if len(data) == 0 || string(data) == "null" {
		data = body
	}

	webhook := &models.Webhook{
		EventType: eventType,
		Data:      data,
		Headers: models.HeaderSummary{
			ContentType:   r.Header.Get("Content-Type"),
			UserAgent:     r.Header.Get("User-Agent"),
			ContentLength: r.Header.Get("Content-Length"),
		},
		SourceIP: getClientIP(r),
		Method:   r.Method,
		Path:     r.URL.Path,
		RawBody:  body,
	}

	stored := h.service.Ingest(r.Context(), webhook)

	writeJSON(w, http.StatusOK, models.IngressResponse{
		Status:     "success",
		Message:    "Webhook received successfully",
		WebhookID:  stored.ID,
		ReceivedAt: stored.ReceivedAt,
	})
}

// HandleList handles GET /webhooks.
func (h *WebhookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	webhooks := h.service.List()
	writeJSON(w, http.StatusOK, models.ListResponse{
		Count:    len(webhooks),
		Webhooks: webhooks,
	})
}

// HandleGet handles GET /webhooks/{id}.
func (h *WebhookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	webhook, err := h.service.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up webhook")
		return
	}
	writeJSON(w, http.StatusOK, webhook)
}

// HandleClear handles DELETE /webhooks.
func (h *WebhookHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	removed := h.service.Clear(r.Context())
	writeJSON(w, http.StatusOK, models.ClearResponse{
		Status:  "success",
		Message: fmt.Sprintf("Cleared %d webhooks", removed),
	})
}

// HandleStats handles GET /stats.
func (h *WebhookHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Stats())
}

// HandleHealth handles GET /health.
func (h *WebhookHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Health())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
