package server

import (
	"encoding/json"

	"foodshare/internal/middleware"
	"foodshare/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketNotifications handles GET /api/ws. The socket carries the caller's
// notification events; anything the client sends besides pongs is ignored.
func (s *Server) WebSocketNotifications() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket rejected", "user_id", userID, "error", err)
			payload, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, payload)
			_ = conn.Close()
			return
		}
		middleware.Logger.Debug("notification socket connected", "user_id", userID)

		hello, _ := json.Marshal(notifications.NewEvent("connected", fiber.Map{"userId": userID}))
		client.TrySend(hello)

		// the handler must block; the connection is released when it returns
		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if s.hub == nil {
			return fiber.ErrServiceUnavailable
		}
		return upgrade(c)
	}
}
