package models

import (
	"encoding/json"
	"time"
)

// Webhook is the canonical record built at ingress time. Once appended to the
// store it is never mutated.
type Webhook struct {
	ID         string          `json:"id"`
	ReceivedAt time.Time       `json:"receivedAt"`
	EventType  string          `json:"eventType"`
	Data       json.RawMessage `json:"data"`
	Headers    HeaderSummary   `json:"headers"`
	SourceIP   string          `json:"sourceIp"`
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	RawBody    json.RawMessage `json:"rawBody"`
}

// HeaderSummary is the fixed projection of inbound request headers retained on
// each record. Never the full header set.
type HeaderSummary struct {
	ContentType   string `json:"content-type,omitempty"`
	UserAgent     string `json:"user-agent,omitempty"`
	ContentLength string `json:"content-length,omitempty"`
}

// EventTypeUnknown is assigned when the inbound payload carries no eventType.
const EventTypeUnknown = "UNKNOWN"

// IngressResponse acknowledges a received webhook.
type IngressResponse struct {
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	WebhookID  string    `json:"webhookId"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// ListResponse wraps the full store snapshot.
type ListResponse struct {
	Count    int        `json:"count"`
	Webhooks []*Webhook `json:"webhooks"`
}

// ClearResponse reports the outcome of a clear-all.
type ClearResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatsResponse aggregates the current snapshot.
type StatsResponse struct {
	TotalWebhooks    int            `json:"totalWebhooks"`
	EventTypes       map[string]int `json:"eventTypes"`
	OldestWebhook    string         `json:"oldestWebhook,omitempty"`
	NewestWebhook    string         `json:"newestWebhook,omitempty"`
	ConnectedClients int            `json:"connectedClients"`
}

// HealthResponse reports liveness plus store and observer counts.
type HealthResponse struct {
	Status           string  `json:"status"`
	Service          string  `json:"service"`
	Uptime           float64 `json:"uptime"`
	WebhookCount     int     `json:"webhookCount"`
	ConnectedClients int     `json:"connectedClients"`
}
