package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahmantamala/practice-gateway/internal/storage"
)

type snapshot struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func setupStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	store, err := New(context.Background(), Options{URL: "redis://" + mr.Addr(), TTL: ttl})
	if err != nil {
		mr.Close()
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
		mr.Close()
	})
	return store, mr
}

func TestStore_SetGet(t *testing.T) {
	store, _ := setupStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "processes-storage:t1", snapshot{Name: "a", Items: []string{"x"}}))

	var got snapshot
	found, err := store.Get(ctx, "processes-storage:t1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, snapshot{Name: "a", Items: []string{"x"}}, got)
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupStore(t, 0)

	var got snapshot
	found, err := store.Get(context.Background(), "nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_CorruptValueIsDropped(t *testing.T) {
	store, mr := setupStore(t, 0)
	require.NoError(t, mr.Set("bad", "{not json"))

	var got snapshot
	found, err := store.Get(context.Background(), "bad", &got)
	assert.False(t, found)
	assert.ErrorIs(t, err, storage.ErrCorruptValue)
	assert.False(t, mr.Exists("bad"))
}

func TestStore_DeleteAndKeys(t *testing.T) {
	store, _ := setupStore(t, 0)
	ctx := context.Background()

	for _, k := range []string{"auth-storage:b", "auth-storage:a", "users-storage:t1"} {
		require.NoError(t, store.Set(ctx, k, snapshot{Name: k}))
	}

	keys, err := store.Keys(ctx, "auth-storage:")
	require.NoError(t, err)
	assert.Equal(t, []string{"auth-storage:a", "auth-storage:b"}, keys)

	require.NoError(t, store.Delete(ctx, "auth-storage:a"))
	keys, err = store.Keys(ctx, "auth-storage:")
	require.NoError(t, err)
	assert.Equal(t, []string{"auth-storage:b"}, keys)
}

func TestStore_TTL(t *testing.T) {
	store, mr := setupStore(t, time.Hour)
	require.NoError(t, store.Set(context.Background(), "auth-storage:s", snapshot{}))

	assert.Equal(t, time.Hour, mr.TTL("auth-storage:s"))
	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("auth-storage:s"))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), Options{URL: "invalid://url"})
	assert.Error(t, err)
}

func TestStore_Prefixed(t *testing.T) {
	store, mr := setupStore(t, 0)
	kv := storage.WithPrefix(store, "pg")
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "usage-tracking:t1", snapshot{Name: "u"}))
	assert.True(t, mr.Exists("pg:usage-tracking:t1"))

	keys, err := kv.Keys(ctx, "usage-tracking:")
	require.NoError(t, err)
	assert.Equal(t, []string{"usage-tracking:t1"}, keys)
}
