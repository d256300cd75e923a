// Package notifications delivers per-user realtime events over Redis pub/sub
// and fans them out to the user's websocket connections.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"foodshare/internal/middleware"
	"foodshare/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types published to users.
const (
	EventMessageCreated     = "message.created"
	EventMessageRead        = "message.read"
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
)

const userChannelPrefix = "notifications:user:"

// Event is the JSON frame delivered to a user's sockets.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent stamps an event of the given type.
func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload, CreatedAt: time.Now().UTC()}
}

// Notifier publishes events into per-user Redis channels. Without Redis, events
// go straight to an attached in-process Hub, or nowhere.
type Notifier struct {
	rdb   *redis.Client
	local atomic.Pointer[Hub]
}

// NewNotifier creates a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends event to every connection userID holds on any instance.
// Delivery is best effort.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, event Event) error {
	if n == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	observability.NotificationsPublished.WithLabelValues(event.Type).Inc()

	if n.rdb == nil {
		if hub := n.local.Load(); hub != nil {
			hub.Deliver(userID, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each payload until ctx is done. It is a no-op without Redis.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(userID uint, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	// Wait for the subscription to be confirmed so no early publish is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				userID, ok := ParseUserChannel(msg.Channel)
				if !ok {
					middleware.Logger.Warn("invalid notification channel", "channel", msg.Channel)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(userID, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user id from a channel built by UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
