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

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	n.Notify(context.Background(), 1, EventFollowed, map[string]uint{"follower_id": 2})
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(uint, string) {}))
}

func TestUserChannelRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, ok := ParseUserChannel(tt.expected)
		assert.True(t, ok)
		assert.Equal(t, tt.userID, id)
	}

	_, ok := ParseUserChannel("chat:conv:5")
	assert.False(t, ok)
	_, ok = ParseUserChannel("notifications:user:abc")
	assert.False(t, ok)
}

func TestNotifier_NotifyReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type delivery struct {
		userID  uint
		payload string
	}
	got := make(chan delivery, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(userID uint, payload string) {
		got <- delivery{userID, payload}
	}))

	n.Notify(ctx, 42, EventMilestoneReached, map[string]int{"threshold": 30})

	select {
	case d := <-got:
		assert.Equal(t, uint(42), d.userID)
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(d.payload), &ev))
		assert.Equal(t, EventMilestoneReached, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestHub_DeliverToRegisteredClients(t *testing.T) {
	h := NewHub()
	c1, err := h.Register(7, nil)
	require.NoError(t, err)
	c2, err := h.Register(7, nil)
	require.NoError(t, err)
	other, err := h.Register(8, nil)
	require.NoError(t, err)

	h.Deliver(7, `{"type":"followed"}`)

	assert.Equal(t, `{"type":"followed"}`, string(<-c1.Send))
	assert.Equal(t, `{"type":"followed"}`, string(<-c2.Send))
	assert.Len(t, other.Send, 0)

	h.Unregister(c1)
	h.Unregister(c1)
	assert.Equal(t, 1, h.Connections(7))
	_, open := <-c1.Send
	assert.False(t, open)
}

func TestHub_ConnectionLimitPerUser(t *testing.T) {
	h := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := h.Register(1, nil)
	assert.Error(t, err)
}
