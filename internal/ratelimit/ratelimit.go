// Package ratelimit provides fixed-window request limiting for the
// credential endpoints. The in-memory limiter is per process; the Redis
// limiter shares its window across replicas.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter answers whether a key may proceed inside the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		clients: make(map[string]*bucket),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]
	if !ok || now.After(b.windowEnd) {
		m.clients[key] = &bucket{count: 1, windowEnd: now.Add(m.window)}
		return true, 0, nil
	}

	if b.count >= m.limit {
		retryAfter := time.Until(b.windowEnd)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	b.count++
	return true, 0, nil
}
