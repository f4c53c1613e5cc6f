package services

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter throttles request bursts per caller address. It is a flood guard
// and unrelated to the claim window.
type IPRateLimiter struct {
	ips    map[string]*visitor
	mu     sync.Mutex
	r      rate.Limit
	b      int
	logger *slog.Logger
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(r rate.Limit, b int, logger *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*visitor),
		r:      r,
		b:      b,
		logger: logger,
	}
}

func (i *IPRateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			i.evictIdle(interval, time.Now())
		}
	}()
}

// evictIdle drops visitors not seen for longer than idle.
func (i *IPRateLimiter) evictIdle(idle time.Duration, now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	before := len(i.ips)
	for ip, v := range i.ips {
		if now.Sub(v.lastSeen) > idle {
			delete(i.ips, ip)
		}
	}
	if evicted := before - len(i.ips); evicted > 0 {
		i.logger.Debug("Evicted idle rate limiters", "evicted", evicted, "remaining", len(i.ips))
	}
}

func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = time.Now()

	return v.limiter
}
