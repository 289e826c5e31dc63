// Package hub maintains the set of connected observers and fans webhook
// events out to them. Delivery is best effort: a slow observer's queue is
// dropped from rather than allowed to back-pressure ingress.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/hooktap/hooktap/internal/metrics"
	"github.com/hooktap/hooktap/internal/models"
)

// Message types exchanged with observers.
const (
	TypeSnapshot = "snapshot"
	TypeWebhook  = "webhook"
	TypeCleared  = "cleared"

	// TypeClear is the only inbound message type; it requests a clear-all.
	TypeClear = "clear"
)

// Message is the envelope pushed to observers.
type Message struct {
	Type     string            `json:"type"`
	Webhook  *models.Webhook   `json:"webhook,omitempty"`
	Webhooks []*models.Webhook `json:"webhooks,omitempty"`
}

// MarshalJSON keeps the webhooks array on snapshot frames even when the store
// is empty, so clients can iterate it unconditionally. Other frame types omit
// the unused fields.
func (m Message) MarshalJSON() ([]byte, error) {
	if m.Type == TypeSnapshot {
		webhooks := m.Webhooks
		if webhooks == nil {
			webhooks = []*models.Webhook{}
		}
		return json.Marshal(struct {
			Type     string            `json:"type"`
			Webhooks []*models.Webhook `json:"webhooks"`
		}{m.Type, webhooks})
	}
	return json.Marshal(struct {
		Type    string          `json:"type"`
		Webhook *models.Webhook `json:"webhook,omitempty"`
	}{m.Type, m.Webhook})
}

// InboundMessage is what observers may send back.
type InboundMessage struct {
	Type string `json:"type"`
}

// DefaultSendBuffer is the per-observer queue capacity when none is configured.
const DefaultSendBuffer = 64

// Client is one registered observer. Messages are consumed from Receive until
// the channel is closed by Unregister or Close.
type Client struct {
	send chan Message
}

// Receive returns the client's message queue.
func (c *Client) Receive() <-chan Message {
	return c.send
}

// Hub is the observer registry.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	sendBuffer int
	closed     bool
}

// New creates an empty hub. Non-positive sendBuffer falls back to
// DefaultSendBuffer.
func New(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		sendBuffer: sendBuffer,
	}
}

// Register adds an observer and queues its join-time snapshot as the first
// message. Returns nil after Close.
func (h *Hub) Register(snapshot []*models.Webhook) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	c := &Client{send: make(chan Message, h.sendBuffer)}
	c.send <- Message{Type: TypeSnapshot, Webhooks: snapshot}
	h.clients[c] = struct{}{}
	metrics.ObserversConnected.Set(float64(len(h.clients)))
	return c
}

// Unregister detaches an observer and closes its queue. Detaching is silent:
// no broadcast, no effect on other observers. Idempotent.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.ObserversConnected.Set(float64(len(h.clients)))
}

// BroadcastWebhook pushes one newly appended record to every observer.
func (h *Hub) BroadcastWebhook(w *models.Webhook) {
	h.broadcast(Message{Type: TypeWebhook, Webhook: w})
}

// BroadcastCleared tells every observer to discard its cached records.
func (h *Hub) BroadcastCleared() {
	h.broadcast(Message{Type: TypeCleared})
}

func (h *Hub) broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Queue full. Drop the message for this observer only.
			metrics.FanoutDropped.Inc()
		}
	}
}

// Count reports the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close detaches all observers and rejects further registrations. Used during
// graceful shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.ObserversConnected.Set(0)
}
