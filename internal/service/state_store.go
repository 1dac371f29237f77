package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OAuthStateTTL acota el tiempo entre el inicio del flujo y el callback.
const OAuthStateTTL = 10 * time.Minute

// StateStore emite valores state de un solo uso para el flujo OAuth.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}

type memoryStateStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     map[string]time.Time
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryStateStore(ttl time.Duration) StateStore {
	if ttl <= 0 {
		ttl = OAuthStateTTL
	}
	return &memoryStateStore{ttl: ttl, items: make(map[string]time.Time), now: time.Now}
}

// Issue descarta los state vencidos antes de guardar uno nuevo.
func (s *memoryStateStore) Issue(_ context.Context) (string, error) {
	state := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if !now.Before(s.nextSweep) {
		for k, exp := range s.items {
			if !now.Before(exp) {
				delete(s.items, k)
			}
		}
		s.nextSweep = now.Add(memorySweepInterval)
	}
	s.items[state] = now.Add(s.ttl)
	return state, nil
}

func (s *memoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[state]
	if !ok {
		return false, nil
	}
	delete(s.items, state)
	return s.now().UTC().Before(exp), nil
}

type redisStateStore struct {
	client redisKVClient
	ttl    time.Duration
	prefix string
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = OAuthStateTTL
	}
	return &redisStateStore{client: client, ttl: ttl, prefix: "auth:oauth_state:"}
}

func (s *redisStateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+state, "1", s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume usa GETDEL para que un state no pueda reutilizarse.
func (s *redisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	state = strings.TrimSpace(state)
	if state == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	_, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
