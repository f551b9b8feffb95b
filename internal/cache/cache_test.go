package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	clk.advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheSetUntil(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.SetUntil("jti", "revoked", clk.t.Add(time.Hour))
	c.SetUntil("stale", "revoked", clk.t.Add(-time.Second))

	clk.advance(30 * time.Minute)
	_, ok := c.Get("jti")
	assert.True(t, ok, "explicit expiry outlives the default ttl")

	_, ok = c.Get("stale")
	assert.False(t, ok)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestCleanExpired(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.SetUntil("c", "3", clk.t.Add(time.Hour))

	clk.advance(2 * time.Minute)
	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestManagerStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	clk.advance(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(context.Background(), time.Millisecond)

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, time.Millisecond)
	m.Stop()
	m.Stop()
}
