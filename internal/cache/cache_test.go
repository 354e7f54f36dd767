package cache

import (
	"context"
	"testing"
	"time"

	"github.com/bilgisen/s13core/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*SessionStorage)(nil)

func TestMemoryProcessed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("t:")

	ok, err := m.IsProcessed(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.MarkProcessed(ctx, "abc", time.Hour))
	ok, err = m.IsProcessed(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Set(ctx, sessionSpace+"s1", []byte("x"), 0))
	require.NoError(t, m.ClearProcessed(ctx))
	ok, _ = m.IsProcessed(ctx, "abc")
	assert.False(t, ok)

	val, err := m.Get(ctx, sessionSpace+"s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), val)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	val, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("v"), val)

	now = now.Add(time.Minute)
	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestSessionStorage(t *testing.T) {
	m := NewMemory("s13:")
	s := NewSessionStorage(m)

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("id1", []byte("data"), time.Hour))
	require.NoError(t, m.MarkProcessed(context.Background(), "h", 0))

	val, err = s.Get("id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), val)

	require.NoError(t, s.Delete("id1"))
	val, _ = s.Get("id1")
	assert.Nil(t, val)

	require.NoError(t, s.Set("id2", []byte("data"), 0))
	require.NoError(t, s.Reset())
	val, _ = s.Get("id2")
	assert.Nil(t, val)

	ok, _ := m.IsProcessed(context.Background(), "h")
	assert.True(t, ok)
}

func TestNewWithoutRedisURL(t *testing.T) {
	c, err := New(&config.Config{RedisPrefix: "x:"})
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(*Memory)
	assert.True(t, ok)
}
