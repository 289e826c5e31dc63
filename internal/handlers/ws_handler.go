package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hooktap/hooktap/internal/hub"
	"github.com/hooktap/hooktap/internal/logging"
	"github.com/hooktap/hooktap/internal/middleware"
)

// ObserverService is the realtime surface the websocket handler depends on.
type ObserverService interface {
	Join() *hub.Client
	Leave(c *hub.Client)
	Clear(ctx context.Context) int
}

// WSConfig tunes the websocket transport.
type WSConfig struct {
	AllowedOrigins []string
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

const maxInboundMessageSize = 512

// WSHandler upgrades observer connections and bridges them to the hub.
type WSHandler struct {
	service  ObserverService
	upgrader websocket.Upgrader
	ping     time.Duration
	pong     time.Duration
	logger   *logging.Logger
}

// NewWSHandler constructs the websocket handler. An empty origin list allows
// same-host connections only; "*" allows any origin.
func NewWSHandler(service ObserverService, cfg WSConfig, logger *logging.Logger) *WSHandler {
	if logger == nil {
		logger = logging.Default()
	}
	ping := cfg.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	pong := cfg.PongTimeout
	if pong <= ping {
		pong = ping * 2
	}

	h := &WSHandler{
		service: service,
		ping:    ping,
		pong:    pong,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(cfg.AllowedOrigins) > 0 {
		origins := cfg.AllowedOrigins
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return middleware.OriginAllowed(origin, origins)
		}
	}
	return h
}

// HandleWS handles GET /ws. Each connection is one observer: it receives the
// join-time snapshot first, then live pushes, and may send a clear request.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", logging.Error(err))
		return
	}

	client := h.service.Join()
	if client == nil {
		// Hub is shutting down.
		_ = conn.Close()
		return
	}

	h.logger.InfoContext(r.Context(), "observer connected", logging.IP(conn.RemoteAddr().String()))

	go h.writePump(conn, client)
	h.readLoop(r.Context(), conn, client)
}

// readLoop consumes inbound frames until the peer goes away. The only
// recognized frame is a clear request; everything else is ignored.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.service.Leave(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxInboundMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pong))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pong))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Disconnects are silent toward other observers.
			return
		}

		var msg hub.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == hub.TypeClear {
			h.service.Clear(ctx)
		}
	}
}

// writePump drains the client's queue onto the socket and keeps the
// connection alive with pings. It exits when the queue is closed or a write
// fails; the read loop then observes the closed socket and detaches.
func (h *WSHandler) writePump(conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(h.ping)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Receive():
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
