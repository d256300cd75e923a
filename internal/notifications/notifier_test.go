package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))
	assert.Equal(t, "notifications:user:100", UserChannel(100))

	id, ok := ParseUserChannel("notifications:user:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"notifications:user:", "notifications:user:x", "notifications:user:0", "chat:conv:1"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_WithoutRedisOrHubIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, NewEvent(EventMessageCreated, nil)))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishUser(context.Background(), 1, NewEvent(EventMessageRead, nil)))
}

func TestNotifier_LocalHubDelivery(t *testing.T) {
	n := NewNotifier(nil)
	hub := NewHub()
	require.NoError(t, hub.StartWiring(context.Background(), n))

	mine, err := hub.Register(5, nil)
	require.NoError(t, err)
	other, err := hub.Register(6, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishUser(context.Background(), 5,
		NewEvent(EventTransactionCreated, map[string]any{"id": 9})))

	event := decodeEvent(t, receive(t, mine))
	assert.Equal(t, EventTransactionCreated, event["type"])
	assert.Equal(t, float64(9), event["payload"].(map[string]any)["id"])
	assert.Empty(t, other.Send)
}

func TestNotifier_RedisFanOut(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb)
	hub := NewHub()
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(3, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishUser(ctx, 3, NewEvent(EventMessageRead, map[string]any{"id": 1})))

	event := decodeEvent(t, receive(t, client))
	assert.Equal(t, EventMessageRead, event["type"])
}
