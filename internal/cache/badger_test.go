package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadger(t *testing.T, opts Options) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, int64(4<<20), opts.MaxBodyBytes)
	assert.True(t, opts.Compress)
	assert.False(t, opts.Logger)
}

func TestBadgerCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := newTestBadger(t, DefaultOptions())

	t.Run("miss", func(t *testing.T) {
		_, err := c.Get(ctx, BodyKey("https://example.com/missing"))
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("round trip", func(t *testing.T) {
		key := BodyKey("https://example.com/page")
		require.NoError(t, c.Set(ctx, key, []byte("<html></html>"), time.Minute))

		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("<html></html>"), got)
		assert.True(t, c.Has(ctx, key))
	})

	t.Run("overwrite", func(t *testing.T) {
		key := BodyKey("https://example.com/over")
		require.NoError(t, c.Set(ctx, key, []byte("a"), 0))
		require.NoError(t, c.Set(ctx, key, []byte("b"), 0))

		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("b"), got)
	})
}

func TestBadgerCache_SkipsOversizedBodies(t *testing.T) {
	ctx := context.Background()
	c := newTestBadger(t, Options{MaxBodyBytes: 8})

	key := BodyKey("https://example.com/big")
	require.NoError(t, c.Set(ctx, key, []byte(strings.Repeat("x", 9)), time.Minute))
	assert.False(t, c.Has(ctx, key))

	require.NoError(t, c.Set(ctx, key, []byte("small"), time.Minute))
	assert.True(t, c.Has(ctx, key))
}

func TestBadgerCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := newTestBadger(t, DefaultOptions())

	require.NoError(t, c.Set(ctx, BodyKey("https://a.test/1"), []byte("v1"), 0))
	require.NoError(t, c.Set(ctx, BodyKey("https://a.test/2"), []byte("v2"), 0))
	require.NoError(t, c.Set(ctx, "other", []byte("v3"), 0))
	assert.Equal(t, 2, c.Len(PrefixBody+":"))

	require.NoError(t, c.Delete(ctx, BodyKey("https://a.test/1")))
	assert.False(t, c.Has(ctx, BodyKey("https://a.test/1")))
	assert.Equal(t, 1, c.Len(PrefixBody+":"))
	assert.Equal(t, 2, c.Len(""))
}

func TestBadgerCache_Compression(t *testing.T) {
	ctx := context.Background()
	body := []byte(strings.Repeat("<div class=\"download-box\">1080p</div>", 200))

	for _, compress := range []bool{true, false} {
		c := newTestBadger(t, Options{Compress: compress})
		require.NoError(t, c.Set(ctx, "page", body, time.Minute))

		got, err := c.Get(ctx, "page")
		require.NoError(t, err)
		assert.Equal(t, body, got)
	}
}

func TestBadgerCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := newTestBadger(t, DefaultOptions())

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 2*time.Second))
	assert.True(t, c.Has(ctx, "short"))

	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return errors.Is(err, domain.ErrCacheMiss)
	}, 5*time.Second, 100*time.Millisecond)
}
