package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: fixed window en memoria, para single-process y tests.
type MemoryLimiter struct {
	mu     sync.Mutex
	max    int64
	window time.Duration
	wins   map[string]*memWindow
}

type memWindow struct {
	start time.Time
	hits  int64
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    int64(max),
		window: window,
		wins:   make(map[string]*memWindow),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wins[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &memWindow{start: now}
		l.wins[key] = w
	}
	w.hits++

	allowed := w.hits <= l.max
	remaining := l.max - w.hits
	if remaining < 0 {
		remaining = 0
	}
	ttl := l.window - now.Sub(w.start)

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: w.hits,
		WindowTTL:   ttl,
	}
	if !allowed {
		res.RetryAfter = ttl
	}

	// poda oportunista de ventanas vencidas
	if len(l.wins) > 4096 {
		for k, win := range l.wins {
			if now.Sub(win.start) >= l.window {
				delete(l.wins, k)
			}
		}
	}
	return res, nil
}
