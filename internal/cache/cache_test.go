package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_LoadsOnceThenServesFromCache(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	loads := 0
	load := func(dest *cachedUser) func() error {
		return func() error {
			loads++
			*dest = cachedUser{ID: 1, Username: "ada"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, load(&first)))
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, load(&second)))

	assert.Equal(t, 1, loads)
	assert.Equal(t, "ada", second.Username)
	assert.True(t, mr.Exists("user:1"))
	assert.Equal(t, UserTTL, mr.TTL("user:1"))
}

func TestAside_LoadErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)
	var u cachedUser
	err := Aside(context.Background(), UserKey(2), &u, UserTTL, func() error {
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("user:2"))
}

func TestInvalidateUserAndProject(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	SetJSON(ctx, UserKey(3), cachedUser{ID: 3}, time.Minute)
	SetJSON(ctx, ProjectKey(9), map[string]int{"id": 9}, time.Minute)
	SetJSON(ctx, PopularProjectKey, []int{9}, time.Minute)

	InvalidateUser(ctx, 3)
	InvalidateProject(ctx, 9)

	assert.False(t, mr.Exists("user:3"))
	assert.False(t, mr.Exists("project:9"))
	assert.False(t, mr.Exists(PopularProjectKey))
}

func TestCacheDisabledIsNoop(t *testing.T) {
	SetClient(nil)
	var u cachedUser
	called := false
	err := Aside(context.Background(), UserKey(4), &u, UserTTL, func() error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
	assert.False(t, GetJSON(context.Background(), UserKey(4), &u))
	InvalidateUser(context.Background(), 4)
}
