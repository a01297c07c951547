package session

import (
	"context"
	"sync"
	"time"

	appredis "github.com/threemeal/threemeal-backend/pkg/redis"
)

// CookieName identifies the browser session that carries the chosen zip code.
const CookieName = "threemeal_session"

// TTL bounds how long a chosen zip code is remembered.
const TTL = 30 * 24 * time.Hour

// Store keeps per session state and revoked access tokens.
type Store interface {
	SetZipcode(ctx context.Context, sessionID, code string) error
	Zipcode(ctx context.Context, sessionID string) (string, error)
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type redisStore struct {
	store *appredis.Store
}

// NewRedisStore backs the session store with Redis.
func NewRedisStore(store *appredis.Store) Store {
	return &redisStore{store: store}
}

func (r *redisStore) SetZipcode(ctx context.Context, sessionID, code string) error {
	return r.store.SetSessionZipcode(ctx, sessionID, code, TTL)
}

func (r *redisStore) Zipcode(ctx context.Context, sessionID string) (string, error) {
	return r.store.GetSessionZipcode(ctx, sessionID)
}

func (r *redisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return r.store.BlacklistToken(ctx, token, ttl)
}

func (r *redisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return r.store.IsTokenBlacklisted(ctx, token)
}

type entry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	zips    map[string]entry
	revoked map[string]time.Time
}

// NewMemoryStore is used when Redis is disabled. State is lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{
		now:     time.Now,
		zips:    make(map[string]entry),
		revoked: make(map[string]time.Time),
	}
}

func (m *memoryStore) SetZipcode(_ context.Context, sessionID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zips[sessionID] = entry{value: code, expiresAt: m.now().Add(TTL)}
	return nil
}

func (m *memoryStore) Zipcode(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.zips[sessionID]
	if !ok {
		return "", nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.zips, sessionID)
		return "", nil
	}
	return e.value, nil
}

func (m *memoryStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[token] = m.now().Add(ttl)
	return nil
}

func (m *memoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[token]
	if !ok {
		return false, nil
	}
	if m.now().After(exp) {
		delete(m.revoked, token)
		return false, nil
	}
	return true, nil
}
