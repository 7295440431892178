package preview

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client), mr
}

func TestCache_PutGet(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	doc := &Document{HTML: "<html></html>", EntryFile: "App.jsx", Fingerprint: "abc123"}
	cache.Put(ctx, "p1", doc)

	got, hit := cache.Get(ctx, "p1", "abc123")
	require.True(t, hit)
	assert.Equal(t, doc.HTML, got.HTML)
	assert.Equal(t, doc.EntryFile, got.EntryFile)
	assert.Equal(t, doc.Fingerprint, got.Fingerprint)
}

func TestCache_FingerprintMismatchIsAMiss(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	cache.Put(ctx, "p1", &Document{HTML: "<html></html>", Fingerprint: "old"})

	_, hit := cache.Get(ctx, "p1", "new")
	assert.False(t, hit)
}

func TestCache_MissOnUnknownProject(t *testing.T) {
	cache, _ := setupCache(t)

	_, hit := cache.Get(context.Background(), "ghost", "whatever")
	assert.False(t, hit)
}

func TestCache_Invalidate(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	cache.Put(ctx, "p1", &Document{HTML: "x", Fingerprint: "fp"})
	cache.Invalidate(ctx, "p1")

	_, hit := cache.Get(ctx, "p1", "fp")
	assert.False(t, hit)
	assert.False(t, mr.Exists(docKeyPrefix+"p1"))
}

func TestCache_NilClientDisables(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()

	cache.Put(ctx, "p1", &Document{HTML: "x", Fingerprint: "fp"})
	_, hit := cache.Get(ctx, "p1", "fp")
	assert.False(t, hit)

	// no panic either way
	cache.Invalidate(ctx, "p1")
}

func TestCache_EntryExpires(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	cache.Put(ctx, "p1", &Document{HTML: "x", Fingerprint: "fp"})
	mr.FastForward(docTTL + 1)

	_, hit := cache.Get(ctx, "p1", "fp")
	assert.False(t, hit)
}
