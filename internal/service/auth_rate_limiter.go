package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// AuthRateLimiter limita los intentos de autenticación por clave (IP).
type AuthRateLimiter interface {
	Allow(key string) bool
}

const redisAuthAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisAuthRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

func NewRedisAuthRateLimiter(client *redis.Client, window time.Duration, max int) AuthRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisAuthRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "auth:rl:",
	}
}

func (l *redisAuthRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisAuthAllowScript, []string{l.prefix + normalizedKey}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

// memoryAuthRateLimiter mantiene un token bucket por clave.
// Las claves inactivas durante una ventana completa se descartan.
type memoryAuthRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	limiters  map[string]*keyLimiter
	nextSweep time.Time
	now       func() time.Time
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryAuthRateLimiter permite max intentos por ventana con ráfaga igual a max.
func NewMemoryAuthRateLimiter(window time.Duration, max int) AuthRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryAuthRateLimiter{
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
		limiters: make(map[string]*keyLimiter),
		now:      time.Now,
	}
}

func (l *memoryAuthRateLimiter) Allow(key string) bool {
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if !now.Before(l.nextSweep) {
		for k, entry := range l.limiters {
			if now.Sub(entry.lastSeen) >= l.window {
				delete(l.limiters, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}
	entry, ok := l.limiters[normalizedKey]
	if !ok {
		entry = &keyLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[normalizedKey] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}
