package cache

import (
	"context"
	"fmt"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"strings"
	"sync"
	"time"
)

// Entry es un valor cacheado junto con su momento de inserción
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
}

// Age retorna la antigüedad de la entrada respecto a now
func (e Entry[V]) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Stats resume el estado de un TTLCache para el endpoint de status
type Stats struct {
	Name     string        `json:"name"`
	Size     int           `json:"size"`
	Capacity int           `json:"capacity"`
	TTL      time.Duration `json:"ttl"`
}

// Option configura un TTLCache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock reemplaza el reloj del cache (tests)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// TTLCache es un cache en memoria acotado por capacidad y con expiración perezosa.
// Una entrada expira cuando su edad es >= ttl; se elimina al leerla o en ClearExpired.
type TTLCache[K comparable, V any] struct {
	name     string
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu    sync.Mutex
	items map[K]Entry[V]
}

// NewTTLCache crea un cache con el TTL y la capacidad indicados
func NewTTLCache[K comparable, V any](name string, ttl time.Duration, capacity int, opts ...Option) *TTLCache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}

	return &TTLCache[K, V]{
		name:     name,
		ttl:      ttl,
		capacity: capacity,
		now:      o.now,
		items:    make(map[K]Entry[V]),
	}
}

// Get obtiene un valor si existe y no expiró. Las entradas expiradas se eliminan.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	entry, ok := c.GetEntry(key)
	return entry.Value, ok
}

// GetEntry es como Get pero incluye CreatedAt para chequeos de frescura
func (c *TTLCache[K, V]) GetEntry(key K) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		metrics.RecordCacheOperation(c.name, "get", "miss")
		return Entry[V]{}, false
	}

	if c.expired(entry, c.now()) {
		delete(c.items, key)
		metrics.RecordCacheOperation(c.name, "get", "expired")
		metrics.RecordCacheEviction(c.name, "expired")
		metrics.UpdateCacheKeys(c.name, len(c.items))
		return Entry[V]{}, false
	}

	metrics.RecordCacheOperation(c.name, "get", "hit")
	return entry, true
}

// Peek retorna la entrada sin importar su edad y sin eliminarla
func (c *TTLCache[K, V]) Peek(key K) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	return entry, exists
}

// Set inserta o sobreescribe un valor. Si el cache está lleno y la clave es nueva,
// se descarta primero la entrada más antigua.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.capacity {
		c.evictOldest()
	}

	c.items[key] = Entry[V]{Value: value, CreatedAt: c.now()}
	metrics.RecordCacheOperation(c.name, "set", "success")
	metrics.UpdateCacheKeys(c.name, len(c.items))
}

// Delete elimina una clave; retorna true si existía
func (c *TTLCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists {
		return false
	}
	delete(c.items, key)
	metrics.RecordCacheOperation(c.name, "delete", "success")
	metrics.UpdateCacheKeys(c.name, len(c.items))
	return true
}

// DeleteFunc elimina todas las claves que cumplen match y retorna cuántas
func (c *TTLCache[K, V]) DeleteFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if match(key) {
			delete(c.items, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.UpdateCacheKeys(c.name, len(c.items))
	}
	return removed
}

// ClearExpired elimina todas las entradas expiradas y retorna cuántas
func (c *TTLCache[K, V]) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.items {
		if c.expired(entry, now) {
			delete(c.items, key)
			removed++
		}
	}

	if removed > 0 {
		metrics.CacheEvictionsTotal.WithLabelValues(c.name, "expired").Add(float64(removed))
		metrics.UpdateCacheKeys(c.name, len(c.items))
		logging.Cache().Cleared(context.Background(), c.name+":expired", removed)
	}
	return removed
}

// Clear vacía el cache y retorna cuántas entradas había
func (c *TTLCache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.items)
	c.items = make(map[K]Entry[V])
	metrics.UpdateCacheKeys(c.name, 0)
	return removed
}

// Size retorna el número de entradas, incluidas las expiradas aún no eliminadas
func (c *TTLCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats retorna nombre, tamaño, capacidad y TTL del cache
func (c *TTLCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Name: c.name, Size: len(c.items), Capacity: c.capacity, TTL: c.ttl}
}

// Name retorna el nombre usado en métricas y logs
func (c *TTLCache[K, V]) Name() string {
	return c.name
}

func (c *TTLCache[K, V]) expired(entry Entry[V], now time.Time) bool {
	return now.Sub(entry.CreatedAt) >= c.ttl
}

// evictOldest descarta la entrada con menor CreatedAt. Requiere c.mu tomado.
func (c *TTLCache[K, V]) evictOldest() {
	var (
		oldestKey K
		oldestAt  time.Time
		found     bool
	)
	for key, entry := range c.items {
		if !found || entry.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.CreatedAt
			found = true
		}
	}
	if !found {
		return
	}

	delete(c.items, oldestKey)
	metrics.RecordCacheEviction(c.name, "capacity")
	logging.Cache().Evicted(context.Background(), fmt.Sprint(oldestKey), "capacity")
}

// DeletePrefix elimina las claves string que empiezan con prefix
func DeletePrefix[V any](c *TTLCache[string, V], prefix string) int {
	return c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}
