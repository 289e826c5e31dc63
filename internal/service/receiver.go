// Package service owns the webhook receiver's state transitions. All store
// mutations and their fanout broadcasts run through one ReceiverService, which
// serializes them so observers see appends and clears in mutation order and a
// join-time snapshot never has a gap against subsequent live pushes.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/hooktap/hooktap/internal/hub"
	"github.com/hooktap/hooktap/internal/logging"
	"github.com/hooktap/hooktap/internal/metrics"
	"github.com/hooktap/hooktap/internal/models"
	"github.com/hooktap/hooktap/internal/store"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "hooktap"

// ReceiverService coordinates the event store and the fanout hub.
type ReceiverService struct {
	mu      sync.Mutex
	store   *store.Store
	hub     *hub.Hub
	logger  *logging.Logger
	started time.Time
}

// New wires a ReceiverService around the given store and hub.
func New(s *store.Store, h *hub.Hub, logger *logging.Logger) *ReceiverService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReceiverService{
		store:   s,
		hub:     h,
		logger:  logger,
		started: time.Now(),
	}
}

// Ingest appends the candidate record and pushes it to all observers. The
// returned record carries the assigned id and timestamp.
func (s *ReceiverService) Ingest(ctx context.Context, webhook *models.Webhook) *models.Webhook {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.store.Append(webhook)

	metrics.WebhooksReceived.WithLabelValues(stored.EventType).Inc()
	metrics.WebhookBytes.Add(float64(len(stored.RawBody)))
	metrics.StoreSize.Set(float64(s.store.Len()))

	s.logger.InfoContext(ctx, "webhook received",
		logging.WebhookID(stored.ID),
		logging.EventType(stored.EventType),
		logging.IP(stored.SourceIP),
		logging.Method(stored.Method),
		logging.Path(stored.Path),
	)

	s.hub.BroadcastWebhook(stored)
	return stored
}

// Clear empties the store and broadcasts the cleared signal to every
// observer, including the requester when the request came over the realtime
// channel. Returns the number of records removed.
func (s *ReceiverService) Clear(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.Clear()

	metrics.ClearsTotal.Inc()
	metrics.StoreSize.Set(0)

	s.logger.InfoContext(ctx, "webhooks cleared", "removed", removed)

	s.hub.BroadcastCleared()
	return removed
}

// Join registers a new observer. Its first message is a snapshot of the store
// taken atomically with the registration, so no live push can slip in between.
// Returns nil if the hub is shut down.
func (s *ReceiverService) Join() *hub.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hub.Register(s.store.List())
}

// Leave silently detaches an observer.
func (s *ReceiverService) Leave(c *hub.Client) {
	s.hub.Unregister(c)
}

// List returns the current snapshot, newest first.
func (s *ReceiverService) List() []*models.Webhook {
	return s.store.List()
}

// Get looks up one webhook by id.
func (s *ReceiverService) Get(id string) (*models.Webhook, error) {
	return s.store.Get(id)
}

// Stats aggregates the current snapshot.
func (s *ReceiverService) Stats() models.StatsResponse {
	stats := s.store.Stats()

	resp := models.StatsResponse{
		TotalWebhooks:    stats.Total,
		EventTypes:       stats.EventTypes,
		ConnectedClients: s.hub.Count(),
	}
	if !stats.Oldest.IsZero() {
		resp.OldestWebhook = stats.Oldest.Format(time.RFC3339Nano)
	}
	if !stats.Newest.IsZero() {
		resp.NewestWebhook = stats.Newest.Format(time.RFC3339Nano)
	}
	return resp
}

// Health reports liveness, uptime and current counts.
func (s *ReceiverService) Health() models.HealthResponse {
	return models.HealthResponse{
		Status:           "healthy",
		Service:          ServiceName,
		Uptime:           time.Since(s.started).Seconds(),
		WebhookCount:     s.store.Len(),
		ConnectedClients: s.hub.Count(),
	}
}
