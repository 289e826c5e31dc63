package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hooktap/hooktap/internal/models"
)

// ErrNotFound is returned when a webhook id is not in the store.
var ErrNotFound = errors.New("webhook not found")

// DefaultMaxWebhooks bounds the store when no capacity is configured.
const DefaultMaxWebhooks = 100

// Store is a bounded, newest-first in-memory log of received webhooks. It is
// the sole owner of webhook records; snapshots share record pointers, which is
// safe because records are immutable once appended.
type Store struct {
	mu       sync.RWMutex
	webhooks []*models.Webhook
	max      int
}

// New creates a Store retaining at most max records. Non-positive max falls
// back to DefaultMaxWebhooks.
func New(max int) *Store {
	if max <= 0 {
		max = DefaultMaxWebhooks
	}
	return &Store{max: max}
}

// Append assigns an id and received-at timestamp to the candidate, prepends it
// and evicts the oldest records beyond capacity. It never fails.
func (s *Store) Append(webhook *models.Webhook) *models.Webhook {
	webhook.ID = uuid.New().String()
	webhook.ReceivedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.webhooks = append([]*models.Webhook{webhook}, s.webhooks...)
	if len(s.webhooks) > s.max {
		s.webhooks = s.webhooks[:s.max]
	}
	return webhook
}

// List returns a point-in-time snapshot, newest first.
func (s *Store) List() []*models.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*models.Webhook, len(s.webhooks))
	copy(snapshot, s.webhooks)
	return snapshot
}

// Get looks up a webhook by id.
func (s *Store) Get(id string) (*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.webhooks {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, ErrNotFound
}

// Clear empties the store and returns the number of records removed. Clearing
// an empty store is a no-op.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.webhooks)
	s.webhooks = nil
	return removed
}

// Len reports the current record count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.webhooks)
}

// Stats aggregates the current snapshot. Oldest and Newest are zero when the
// store is empty.
type Stats struct {
	Total      int
	EventTypes map[string]int
	Oldest     time.Time
	Newest     time.Time
}

// Stats computes aggregate counts on demand.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Total:      len(s.webhooks),
		EventTypes: make(map[string]int),
	}
	for _, w := range s.webhooks {
		stats.EventTypes[w.EventType]++
	}
	if len(s.webhooks) > 0 {
		stats.Newest = s.webhooks[0].ReceivedAt
		stats.Oldest = s.webhooks[len(s.webhooks)-1].ReceivedAt
	}
	return stats
}
