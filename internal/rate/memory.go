package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// maxTrackedKeys acota la memoria: al superarlo se descartan todos los buckets.
const maxTrackedKeys = 10000

// MemoryLimiter es un token bucket por clave sobre x/time/rate. La ráfaga
// es Max y el bucket se rellena a Max por Window.
type MemoryLimiter struct {
	Max    int
	Window time.Duration

	mu      sync.Mutex
	buckets map[string]*xrate.Limiter
	now     func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:     max,
		Window:  window,
		buckets: make(map[string]*xrate.Limiter),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) bucket(key string) *xrate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxTrackedKeys {
			l.buckets = make(map[string]*xrate.Limiter)
		}
		every := l.Window / time.Duration(max(l.Max, 1))
		b = xrate.NewLimiter(xrate.Every(every), l.Max)
		l.buckets[key] = b
	}
	return b
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	b := l.bucket(key)

	if b.AllowN(now, 1) {
		return Result{
			Allowed:   true,
			Remaining: int64(b.TokensAt(now)),
			WindowTTL: l.Window,
		}, nil
	}

	r := b.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay <= 0 {
		delay = time.Second
	}
	return Result{
		Allowed:    false,
		RetryAfter: delay,
		WindowTTL:  l.Window,
	}, nil
}
