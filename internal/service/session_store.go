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

const redisOpTimeout = 500 * time.Millisecond

// memorySweepInterval espacia las limpiezas de entradas vencidas en memoria.
const memorySweepInterval = time.Minute

// SessionStore guarda sesiones de servidor abiertas tras el login con proveedor.
type SessionStore interface {
	Create(ctx context.Context, patientID string, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, sessionID string) (string, bool, error)
	Destroy(ctx context.Context, sessionID string) error
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memorySessionStore struct {
	mu        sync.Mutex
	items     map[string]memoryEntry
	nextSweep time.Time
	now       func() time.Time
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{items: make(map[string]memoryEntry), now: time.Now}
}

func (s *memorySessionStore) Create(_ context.Context, patientID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(patientID) == "" {
		return "", errors.New("patient id required")
	}
	sid := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if !now.Before(s.nextSweep) {
		for k, entry := range s.items {
			if now.After(entry.expiresAt) {
				delete(s.items, k)
			}
		}
		s.nextSweep = now.Add(memorySweepInterval)
	}
	s.items[sid] = memoryEntry{value: patientID, expiresAt: now.Add(ttl)}
	return sid, nil
}

func (s *memorySessionStore) Resolve(_ context.Context, sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[sessionID]
	if !ok {
		return "", false, nil
	}
	if s.now().UTC().After(entry.expiresAt) {
		delete(s.items, sessionID)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *memorySessionStore) Destroy(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

type redisSessionStore struct {
	client redisKVClient
	prefix string
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{client: client, prefix: "auth:session:"}
}

func (s *redisSessionStore) Create(ctx context.Context, patientID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(patientID) == "" {
		return "", errors.New("patient id required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sid := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+sid, patientID, ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

func (s *redisSessionStore) Resolve(ctx context.Context, sessionID string) (string, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	patientID, err := s.client.Get(ctx, s.prefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return patientID, true, nil
}

func (s *redisSessionStore) Destroy(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+sessionID).Err()
}
