package anonymizer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	entry := ContentEntry{Content: "hello", CapturedAt: time.Now().UTC()}
	require.NoError(t, store.Put(ctx, "h1", entry))

	got, err := store.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
}

func TestMemoryStore_GetMiss(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutIsInsertOrIgnore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "h1", ContentEntry{Content: "first"}))
	require.NoError(t, store.Put(ctx, "h1", ContentEntry{Content: "second"}))

	got, err := store.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Content)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "h1", ContentEntry{Content: "hello"}))
	require.NoError(t, store.Delete(ctx, "h1"))

	_, err := store.Get(ctx, "h1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Purge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("h%d", i), ContentEntry{Content: "x"}))
	}
	require.Equal(t, 5, store.Len())

	require.NoError(t, store.Purge(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			handle := fmt.Sprintf("h%d", n)
			_ = store.Put(ctx, handle, ContentEntry{Content: "c"})
			_, _ = store.Get(ctx, handle)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
