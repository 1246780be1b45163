package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Title string `json:"title"`
	Read  bool   `json:"read"`
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var missing testDoc
	assert.ErrorIs(t, store.Get(ctx, "notifications/u1/n1", &missing), ErrNotFound)

	require.NoError(t, store.Set(ctx, "notifications/u1/n1", testDoc{Title: "hello"}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "notifications/u1/n1", &got))
	assert.Equal(t, "hello", got.Title)
	assert.False(t, got.Read)

	// Update 只合并给定字段
	require.NoError(t, store.Update(ctx, "notifications/u1/n1", map[string]interface{}{"read": true}))
	require.NoError(t, store.Get(ctx, "notifications/u1/n1", &got))
	assert.Equal(t, "hello", got.Title)
	assert.True(t, got.Read)

	require.NoError(t, store.Set(ctx, "notifications/u2/n1", testDoc{Title: "other"}))
	keys, err := store.Keys(ctx, "notifications/u1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"notifications/u1/n1"}, keys)

	// 删除不存在的路径不是错误
	require.NoError(t, store.Remove(ctx, "notifications/u1/gone"))
	require.NoError(t, store.Remove(ctx, "notifications/u1/n1"))
	assert.ErrorIs(t, store.Get(ctx, "notifications/u1/n1", &got), ErrNotFound)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryStore()

	events, err := store.Subscribe(ctx, "notifications/u1/")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "notifications/u1/n1", testDoc{Title: "a"}))
	require.NoError(t, store.Set(ctx, "notifications/u2/n1", testDoc{Title: "filtered"}))
	require.NoError(t, store.Remove(ctx, "notifications/u1/n1"))

	ev := waitEvent(t, events)
	assert.Equal(t, EventSet, ev.Kind)
	assert.Equal(t, "notifications/u1/n1", ev.Path)

	ev = waitEvent(t, events)
	assert.Equal(t, EventRemove, ev.Kind)
	assert.Equal(t, "notifications/u1/n1", ev.Path)
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for kv event")
		return Event{}
	}
}
