package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryCache_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(DefaultRootNameTTL, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, "Electronics"))

	// The root is renamed; the cache keeps serving the old name
	clock.Advance(59 * time.Minute)
	name, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Electronics", name)

	clock.Advance(time.Minute)
	_, ok, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "entry must not be honoured past the TTL")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_MissingKey(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	_, ok, err := c.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Bounded(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewMemoryCache(time.Hour, WithClock(clock.Now), WithMaxEntries(2))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, "a"))
	clock.Advance(time.Second)
	require.NoError(t, c.Set(ctx, 2, "b"))
	clock.Advance(time.Second)
	require.NoError(t, c.Set(ctx, 3, "c"))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, 1)
	assert.False(t, ok, "oldest entry is evicted first")
	name, ok, _ := c.Get(ctx, 3)
	assert.True(t, ok)
	assert.Equal(t, "c", name)

	// Overwriting an existing key never evicts
	require.NoError(t, c.Set(ctx, 3, "c2"))
	assert.Equal(t, 2, c.Len())
}

// Feature: catalog, Property: a stored name is returned until its TTL elapses
func TestProperty_MemoryCacheHonoursTTL(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("entries are visible strictly before expiry", prop.ForAll(
		func(treeID int, name string, ttlSeconds int, elapsedSeconds int) bool {
			clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
			ttl := time.Duration(ttlSeconds) * time.Second
			c := NewMemoryCache(ttl, WithClock(clock.Now))
			ctx := context.Background()

			if err := c.Set(ctx, treeID, name); err != nil {
				return false
			}
			clock.Advance(time.Duration(elapsedSeconds) * time.Second)

			got, ok, err := c.Get(ctx, treeID)
			if err != nil {
				return false
			}
			if elapsedSeconds < ttlSeconds {
				return ok && got == name
			}
			return !ok
		},
		gen.IntRange(1, 10000),
		gen.AlphaString(),
		gen.IntRange(1, 7200),
		gen.IntRange(0, 7200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRedisCache_ExpiresAfterTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, DefaultRootNameTTL)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 7, "Garden"))
	assert.Equal(t, "Garden", mustGet(t, mr, "root_name:7"))
	assert.Equal(t, DefaultRootNameTTL, mr.TTL("root_name:7"))

	name, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Garden", name)

	mr.FastForward(DefaultRootNameTTL)
	_, ok, err = c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_ConnectionError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, _, err = NewRedisCache(client, time.Minute).Get(context.Background(), 1)
	assert.Error(t, err)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
