package realtime

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

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, "user:u1:events", ChannelFor("u1"))
}

func TestPushNotification(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, ChannelFor("u1"))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewPublisher(rdb)
	require.NoError(t, p.PushNotification(ctx, "u1", map[string]string{"id": "n1"}))

	select {
	case msg := <-sub.Channel():
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, EventNotification, env.Kind)
		data, ok := env.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "n1", data["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestPushUnreadCount(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, ChannelFor("u2"))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewPublisher(rdb)
	require.NoError(t, p.PushUnreadCount(ctx, "u2", 7))

	select {
	case msg := <-sub.Channel():
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, EventUnreadCount, env.Kind)
		data, ok := env.Data.(map[string]interface{})
		require.True(t, ok)
		assert.EqualValues(t, 7, data["unreadCount"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
