package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 10 * time.Minute
	idleTTL         = 30 * time.Minute
)

// clientBucket es el limiter de un cliente y su último uso
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterCollection mantiene un token bucket (rate.Limiter) por cliente
type RateLimiterCollection struct {
	mu         sync.Mutex
	buckets    map[string]*clientBucket
	capacity   int
	refillRate int
	now        func() time.Time

	lastCleanup time.Time
}

// NewRateLimiterCollection crea la colección.
// capacity es el burst y refillRate los tokens por segundo.
func NewRateLimiterCollection(capacity, refillRate int) *RateLimiterCollection {
	if capacity < 1 {
		capacity = 1
	}
	if refillRate < 0 {
		refillRate = 0
	}
	return &RateLimiterCollection{
		buckets:     make(map[string]*clientBucket),
		capacity:    capacity,
		refillRate:  refillRate,
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Allow consume un token del cliente si hay disponible
func (rlc *RateLimiterCollection) Allow(clientID string) bool {
	return rlc.AllowN(clientID, 1)
}

// AllowN consume n tokens del cliente si hay disponibles
func (rlc *RateLimiterCollection) AllowN(clientID string, n int) bool {
	now := rlc.now()
	return rlc.bucket(clientID, now).AllowN(now, n)
}

// Tokens retorna los tokens disponibles del cliente
func (rlc *RateLimiterCollection) Tokens(clientID string) float64 {
	now := rlc.now()
	return rlc.bucket(clientID, now).TokensAt(now)
}

func (rlc *RateLimiterCollection) bucket(clientID string, now time.Time) *rate.Limiter {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	b, ok := rlc.buckets[clientID]
	if !ok {
		// limpiar antes de insertar para no evaluar el bucket nuevo
		rlc.maybeCleanup(now)
		b = &clientBucket{
			limiter:  rate.NewLimiter(rate.Limit(rlc.refillRate), rlc.capacity),
			lastSeen: now,
		}
		rlc.buckets[clientID] = b
	}
	b.lastSeen = now
	return b.limiter
}

// maybeCleanup elimina buckets sin uso reciente. Requiere rlc.mu tomado.
func (rlc *RateLimiterCollection) maybeCleanup(now time.Time) {
	if now.Sub(rlc.lastCleanup) < cleanupInterval {
		return
	}

	cutoff := now.Add(-idleTTL)
	for clientID, b := range rlc.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rlc.buckets, clientID)
		}
	}
	rlc.lastCleanup = now
}

// Stats retorna estadísticas de la colección
func (rlc *RateLimiterCollection) Stats() map[string]interface{} {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	return map[string]interface{}{
		"total_clients": len(rlc.buckets),
		"capacity":      rlc.capacity,
		"refill_rate":   rlc.refillRate,
	}
}
