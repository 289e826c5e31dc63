package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hooktap/hooktap/internal/models"
	"github.com/hooktap/hooktap/internal/store"
)

// Mock service for testing
type mockWebhookService struct {
	ingested  *models.Webhook
	webhooks  []*models.Webhook
	getResult *models.Webhook
	getErr    error
	cleared   int
	stats     models.StatsResponse
	health    models.HealthResponse
}

func (m *mockWebhookService) Ingest(ctx context.Context, webhook *models.Webhook) *models.Webhook {
	webhook.ID = "test-id-123"
	webhook.ReceivedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.ingested = webhook
	return webhook
}

func (m *mockWebhookService) List() []*models.Webhook {
	return m.webhooks
}

func (m *mockWebhookService) Get(id string) (*models.Webhook, error) {
	return m.getResult, m.getErr
}

func (m *mockWebhookService) Clear(ctx context.Context) int {
	return m.cleared
}

func (m *mockWebhookService) Stats() models.StatsResponse {
	return m.stats
}

func (m *mockWebhookService) Health() models.HealthResponse {
	return m.health
}

func TestHandleIngress_EnvelopePayload(t *testing.T) {
	mock := &mockWebhookService{}
	handler := NewWebhookHandler(mock)

	body := `{"eventType":"ARTICLE_CREATED","data":{"id":42,"title":"hello"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "article-service/1.0")
	req.RemoteAddr = "10.1.2.3:55555"

	rr := httptest.NewRecorder()
	handler.HandleIngress(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.IngressResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected status 'success', got %q", resp.Status)
	}
	if resp.Message != "Webhook received successfully" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if resp.WebhookID != "test-id-123" {
		t.Errorf("Expected webhookId 'test-id-123', got %q", resp.WebhookID)
	}

	stored := mock.ingested
	if stored == nil {
		t.Fatal("Service did not receive a webhook")
	}
	if stored.EventType != "ARTICLE_CREATED" {
		t.Errorf("Expected eventType 'ARTICLE_CREATED', got %q", stored.EventType)
	}
	if string(stored.Data) != `{"id":42,"title":"hello"}` {
		t.Errorf("Unexpected data field: %s", stored.Data)
	}
	if string(stored.RawBody) != body {
		t.Errorf("rawBody not retained verbatim: %s", stored.RawBody)
	}
	if stored.Headers.ContentType != "application/json" {
		t.Errorf("Unexpected content-type projection: %q", stored.Headers.ContentType)
	}
	if stored.Headers.UserAgent != "article-service/1.0" {
		t.Errorf("Unexpected user-agent projection: %q", stored.Headers.UserAgent)
	}
	if stored.SourceIP != "10.1.2.3:55555" {
		t.Errorf("Unexpected source IP %q", stored.SourceIP)
	}
	if stored.Method != http.MethodPost || stored.Path != "/webhook" {
		t.Errorf("Request line not retained: %s %s", stored.Method, stored.Path)
	}
}

func TestHandleIngress_FallbackFieldDerivation(t *testing.T) {
	mock := &mockWebhookService{}
	handler := NewWebhookHandler(mock)

	body := `{"foo": "bar"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))

	rr := httptest.NewRecorder()
	handler.HandleIngress(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	stored := mock.ingested
	if stored.EventType != models.EventTypeUnknown {
		t.Errorf("Expected eventType %q, got %q", models.EventTypeUnknown, stored.EventType)
	}
	if string(stored.Data) != body {
		t.Errorf("Expected data to fall back to whole body, got %s", stored.Data)
	}
	if string(stored.RawBody) != body {
		t.Errorf("Expected rawBody %s, got %s", body, stored.RawBody)
	}
}

func TestHandleIngress_NonObjectPayload(t *testing.T) {
	mock := &mockWebhookService{}
	handler := NewWebhookHandler(mock)

	body := `[1, 2, 3]`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))

	rr := httptest.NewRecorder()
	handler.HandleIngress(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for array payload, got %d", rr.Code)
	}
	if mock.ingested.EventType != models.EventTypeUnknown {
		t.Errorf("Expected sentinel eventType, got %q", mock.ingested.EventType)
	}
	if string(mock.ingested.Data) != body {
		t.Errorf("Expected whole body as data, got %s", mock.ingested.Data)
	}
}

func TestHandleIngress_InvalidJSON(t *testing.T) {
	mock := &mockWebhookService{}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))

	rr := httptest.NewRecorder()
	handler.HandleIngress(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if mock.ingested != nil {
		t.Error("Malformed payload must not reach the service")
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("Expected an error message")
	}
}

func TestHandleIngress_EmptyBody(t *testing.T) {
	mock := &mockWebhookService{}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(nil))

	rr := httptest.NewRecorder()
	handler.HandleIngress(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for empty body, got %d", rr.Code)
	}
	if string(mock.ingested.RawBody) != "{}" {
		t.Errorf("Expected empty body to normalize to {}, got %s", mock.ingested.RawBody)
	}
}

func TestHandleIngress_ForwardedForWins(t *testing.T) {
	mock := &mockWebhookService{}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.RemoteAddr = "10.1.2.3:55555"

	rr := httptest.NewRecorder()
	handler.HandleIngress(rr, req)

	if mock.ingested.SourceIP != "203.0.113.9" {
		t.Errorf("Expected first X-Forwarded-For hop, got %q", mock.ingested.SourceIP)
	}
}

func TestHandleList(t *testing.T) {
	mock := &mockWebhookService{
		webhooks: []*models.Webhook{
			{ID: "b", EventType: "B"},
			{ID: "a", EventType: "A"},
		},
	}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/webhooks", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.ListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Expected count 2, got %d", resp.Count)
	}
	if len(resp.Webhooks) != 2 || resp.Webhooks[0].ID != "b" {
		t.Errorf("Unexpected webhooks: %+v", resp.Webhooks)
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	mock := &mockWebhookService{getErr: store.ErrNotFound}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")

	rr := httptest.NewRecorder()
	handler.HandleGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp["error"] != "Webhook not found" {
		t.Errorf("Expected error 'Webhook not found', got %q", resp["error"])
	}
}

func TestHandleGet_Found(t *testing.T) {
	mock := &mockWebhookService{getResult: &models.Webhook{ID: "abc", EventType: "A"}}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/abc", nil)
	req.SetPathValue("id", "abc")

	rr := httptest.NewRecorder()
	handler.HandleGet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.Webhook
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ID != "abc" {
		t.Errorf("Expected id 'abc', got %q", resp.ID)
	}
}

func TestHandleClear(t *testing.T) {
	mock := &mockWebhookService{cleared: 7}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodDelete, "/webhooks", nil)
	rr := httptest.NewRecorder()
	handler.HandleClear(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.ClearResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected status 'success', got %q", resp.Status)
	}
	if resp.Message != "Cleared 7 webhooks" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
}

func TestHandleStats(t *testing.T) {
	mock := &mockWebhookService{
		stats: models.StatsResponse{
			TotalWebhooks:    3,
			EventTypes:       map[string]int{"A": 2, "B": 1},
			ConnectedClients: 1,
		},
	}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	handler.HandleStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.StatsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TotalWebhooks != 3 || resp.EventTypes["A"] != 2 {
		t.Errorf("Unexpected stats: %+v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	mock := &mockWebhookService{
		health: models.HealthResponse{
			Status:       "healthy",
			Service:      "hooktap",
			Uptime:       12.5,
			WebhookCount: 4,
		},
	}
	handler := NewWebhookHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.HandleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" || resp.Service != "hooktap" {
		t.Errorf("Unexpected health response: %+v", resp)
	}
}
