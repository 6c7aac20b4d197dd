// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/pkg/logger"
	"github.com/tribelens/tribe/pkg/metrics"
)

// Websocket timing and buffer constants.
const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsSendBuffer     = 8
	wsMaxMessageSize = 1024
	wsUpdateBuffer   = 16
)

// WSDependencies defines the interface for snapshot streaming.
type WSDependencies interface {
	Snapshot(ctx context.Context) *model.Snapshot
	Subscribe(ch chan<- *model.Snapshot) func()
}

// wsMessage is the envelope pushed to websocket clients.
type wsMessage struct {
	Type string          `json:"type"`
	Data *model.Snapshot `json:"data"`
}

// wsClient pairs a connection with its outbound buffer. A client that
// cannot keep up with the buffer is dropped rather than stalling the
// broadcast loop.
type wsClient struct {
	conn *websocket.Conn
	send chan *model.Snapshot
}

// WSHandler upgrades connections and fans published snapshots out to them.
type WSHandler struct {
	deps     WSDependencies
	upgrader websocket.Upgrader
	logger   logger.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(deps WSDependencies) *WSHandler {
	return &WSHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from the same host; no origin list.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger.Get().Named("ws"),
		clients: make(map[*wsClient]struct{}),
	}
}

// Run bridges snapshot publications to connected clients until ctx ends.
func (h *WSHandler) Run(ctx context.Context) {
	updates := make(chan *model.Snapshot, wsUpdateBuffer)
	unsubscribe := h.deps.Subscribe(updates)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			h.closeAll(ctx)
			return
		case snap := <-updates:
			h.broadcast(snap)
		}
	}
}

// HandleWS handles GET /api/ws upgrade requests.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	client := &wsClient{conn: conn, send: make(chan *model.Snapshot, wsSendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateWSClients(total)
	h.logger.Debug(r.Context(), "websocket client connected", logger.Int("total", total))

	// Seed the current state so a fresh client renders immediately
	// instead of waiting for the next publication.
	client.send <- h.deps.Snapshot(r.Context())

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WSHandler) broadcast(snap *model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	metrics.RecordWSBroadcast()
	for client := range h.clients {
		select {
		case client.send <- snap:
		default:
			// Slow consumer; its buffer is full.
			metrics.RecordWSSendError()
			close(client.send)
			delete(h.clients, client)
		}
	}
	metrics.UpdateWSClients(len(h.clients))
}

// remove detaches client if it is still registered. Membership is checked
// under the lock so the send channel is closed exactly once.
func (h *WSHandler) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.UpdateWSClients(len(h.clients))
}

func (h *WSHandler) closeAll(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.UpdateWSClients(0)
	h.logger.Info(ctx, "websocket hub stopped")
}

// writePump drains the client's buffer onto the wire and keeps the
// connection alive with periodic pings.
func (h *WSHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// The hub dropped this client.
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(wsMessage{Type: "snapshot", Data: snap}); err != nil {
				metrics.RecordWSSendError()
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. It exists to
// process control frames and to notice when the peer goes away.
func (h *WSHandler) readPump(client *wsClient) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(wsMaxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
