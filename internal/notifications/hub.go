package notifications

import (
	"context"
	"errors"
	"sync"

	"foodshare/internal/middleware"
	"foodshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

// Connection limit errors returned by Register.
var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
	ErrHubClosed  = errors.New("notification hub closed")
)

// Hub maps user ids to their open websocket clients on this instance.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name identifies the hub in logs.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes client. Unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	h.totalConns--
	observability.WebSocketConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Deliver queues payload on every connection of userID.
func (h *Hub) Deliver(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(payload)
	}
}

// Connections reports how many sockets userID holds here.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring routes the notifier's events into this hub. With Redis the hub
// follows the pattern subscription, so events published by any instance
// arrive; without it the notifier hands events over directly.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	if n.rdb == nil {
		n.local.Store(h)
		return nil
	}
	return n.StartPatternSubscriber(ctx, func(userID uint, payload string) {
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown refuses new registrations and closes every client's queue. Each
// WritePump then sends a going-away close frame and closes its socket.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, clients := range h.conns {
		for client := range clients {
			client.shutdown()
		}
		middleware.Logger.Debug("closing notification sockets", "user_id", userID, "count", len(clients))
		observability.WebSocketConnections.Sub(float64(len(clients)))
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
