package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock es un reloj manual para controlar la expiración
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTTLCache_GetSet(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache[string, float64]("test", time.Hour, 10, WithClock(clock.Now))

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("rate_UAH", 41.82)
	v, ok := c.Get("rate_UAH")
	require.True(t, ok)
	assert.Equal(t, 41.82, v)

	entry, ok := c.GetEntry("rate_UAH")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), entry.CreatedAt)
}

func TestTTLCache_ZeroValueIsAHit(t *testing.T) {
	c := NewTTLCache[string, float64]("test", time.Hour, 10)
	c.Set("free", 0.0)

	v, ok := c.Get("free")
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestTTLCache_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantHit bool
	}{
		{name: "fresh", advance: 59 * time.Minute, wantHit: true},
		{name: "age equal to ttl expires", advance: time.Hour, wantHit: false},
		{name: "older than ttl", advance: 2 * time.Hour, wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := NewTTLCache[string, string]("test", time.Hour, 10, WithClock(clock.Now))
			c.Set("k", "v")

			clock.Advance(tt.advance)
			_, ok := c.Get("k")
			assert.Equal(t, tt.wantHit, ok)

			if tt.wantHit {
				assert.Equal(t, 1, c.Size())
			} else {
				assert.Equal(t, 0, c.Size(), "expired entry should be evicted on read")
			}
		})
	}
}

func TestTTLCache_PeekIgnoresExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache[string, string]("test", time.Minute, 10, WithClock(clock.Now))
	c.Set("k", "v")
	clock.Advance(time.Hour)

	entry, ok := c.Peek("k")
	require.True(t, ok)
	assert.Equal(t, "v", entry.Value)
	assert.Equal(t, time.Hour, entry.Age(clock.Now()))
	assert.Equal(t, 1, c.Size())
}

func TestTTLCache_CapacityEvictsOldest(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache[string, int]("test", time.Hour, 3, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Second)
	}

	// sobreescribir una clave existente no desaloja nada
	c.Set("k1", 10)
	assert.Equal(t, 3, c.Size())

	c.Set("k3", 3)
	assert.Equal(t, 3, c.Size())

	_, ok := c.Get("k0")
	assert.False(t, ok, "oldest entry should be evicted")
	for _, key := range []string{"k1", "k2", "k3"} {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}
}

func TestTTLCache_SizeNeverExceedsCapacity(t *testing.T) {
	c := NewTTLCache[int, int]("test", time.Hour, 5)
	for i := 0; i < 100; i++ {
		c.Set(i, i)
		assert.LessOrEqual(t, c.Size(), 5)
	}
}

func TestTTLCache_ClearExpired(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache[string, int]("test", 10*time.Minute, 10, WithClock(clock.Now))

	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.Advance(6 * time.Minute)
	c.Set("new", 3)
	clock.Advance(5 * time.Minute)

	assert.Equal(t, 2, c.ClearExpired())
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, 0, c.ClearExpired())
}

func TestTTLCache_DeleteAndPrefix(t *testing.T) {
	c := NewTTLCache[string, float64]("test", time.Hour, 10)
	c.Set("rate_UAH", 1)
	c.Set("rate_RUB", 2)
	c.Set("name_570", 3)

	assert.True(t, c.Delete("name_570"))
	assert.False(t, c.Delete("name_570"))

	assert.Equal(t, 2, DeletePrefix(c, "rate_"))
	assert.Equal(t, 0, c.Size())
}

func TestTTLCache_ClearAndStats(t *testing.T) {
	c := NewTTLCache[string, int]("catalog", time.Hour, 0)
	c.Set("a", 1)

	stats := c.Stats()
	assert.Equal(t, "catalog", stats.Name)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 1, stats.Capacity, "capacity is at least one")
	assert.Equal(t, time.Hour, stats.TTL)

	assert.Equal(t, 1, c.Clear())
	assert.Equal(t, 0, c.Size())
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache[string, int]("test", time.Hour, 50)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Set(key, i)
				c.Get(key)
				if i%50 == 0 {
					c.ClearExpired()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 50)
}
