package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "client:1", []byte(`{"id":1}`), time.Minute))

	got, ok, err := m.Get(ctx, "client:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"id":1}`), got)
}

func TestMemory_MissingKey(t *testing.T) {
	_, ok, err := NewMemory().Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "short", []byte("v"), -time.Second))

	_, ok, err := m.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, m.Delete(ctx, "a", "b"))

	assert.Equal(t, 0, m.Len())
}

func TestMemory_DeletePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "billings:page:1:size:20:search:", []byte("x"), time.Minute))
	require.NoError(t, m.Set(ctx, "billings:page:2:size:20:search:", []byte("y"), time.Minute))
	require.NoError(t, m.Set(ctx, "collections:page:1:size:20", []byte("z"), time.Minute))

	require.NoError(t, m.DeletePattern(ctx, "billings:*"))

	_, ok, _ := m.Get(ctx, "billings:page:1:size:20:search:")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "collections:page:1:size:20")
	assert.True(t, ok, "unrelated keys must survive the sweep")
}
