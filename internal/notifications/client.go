package notifications

import (
	"sync"
	"sync/atomic"
	"time"

	"foodshare/internal/middleware"
	"foodshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Socket timings. The server pings every keepaliveInterval and drops a peer
// that has not answered within idleTimeout.
const (
	frameWriteTimeout = 10 * time.Second
	idleTimeout       = time.Minute
	keepaliveInterval = idleTimeout * 9 / 10

	// inbound frames are only pongs and close frames
	inboundFrameLimit = 512
	sendBuffer        = 64
)

// Client is one notification socket held by a Hub. Events are queued on Send
// and written by WritePump, the only goroutine that writes to Conn; ReadPump
// only watches for the peer going away.
type Client struct {
	hub *Hub

	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint

	closeOnce sync.Once
	goingAway atomic.Bool
}

// NewClient wraps conn for userID.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, sendBuffer)}
}

func (c *Client) extendIdle() error {
	return c.Conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

func (c *Client) write(kind int, frame []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(frameWriteTimeout))
	return c.Conn.WriteMessage(kind, frame)
}

// ReadPump blocks until the socket fails or the peer closes it. The client is
// then removed from its hub and its queue is closed, which stops WritePump.
func (c *Client) ReadPump() {
	c.Conn.SetReadLimit(inboundFrameLimit)
	_ = c.extendIdle()
	c.Conn.SetPongHandler(func(string) error { return c.extendIdle() })

	var err error
	for err == nil {
		_, _, err = c.Conn.ReadMessage()
	}
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		middleware.Logger.Debug("notification socket closed", "user_id", c.UserID, "error", err)
	}

	c.hub.UnregisterClient(c)
	c.close()
	_ = c.Conn.Close()
}

// WritePump flushes queued events until Send is closed or a write fails.
func (c *Client) WritePump() {
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	defer c.Conn.Close()

	for {
		var err error
		select {
		case event, open := <-c.Send:
			if !open {
				_ = c.write(websocket.CloseMessage, c.closeFrame())
				return
			}
			err = c.write(websocket.TextMessage, event)
		case <-keepalive.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

// TrySend queues event without blocking. A full queue drops the event; a
// queue already closed by shutdown drops it too.
func (c *Client) TrySend(event []byte) {
	defer func() {
		if recover() != nil {
			observability.WebSocketDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- event:
	default:
		observability.WebSocketDrops.WithLabelValues("full").Inc()
		middleware.Logger.Warn("notification queue full, dropping event", "user_id", c.UserID)
	}
}

// closeFrame is the close payload WritePump sends once Send is closed.
func (c *Client) closeFrame() []byte {
	if c.goingAway.Load() {
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	}
	return []byte{}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// shutdown asks WritePump to say goodbye with a going-away frame and exit.
func (c *Client) shutdown() {
	c.goingAway.Store(true)
	c.close()
}
