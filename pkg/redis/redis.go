package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/pkg/logger"
)

var client *redis.Client

// Init initializes the shared Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// Store groups the key conventions used by the application.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

func sessionZipKey(sessionID string) string {
	return fmt.Sprintf("session:%s:zipcode", sessionID)
}

// BlacklistToken marks token revoked until expiry.
func (s *Store) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, blacklistKey(token), "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func (s *Store) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	val, err := s.rdb.Get(ctx, blacklistKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

// SetSessionZipcode remembers the zip code chosen in a browser session.
func (s *Store) SetSessionZipcode(ctx context.Context, sessionID, code string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionZipKey(sessionID), code, ttl).Err(); err != nil {
		logger.Error("Failed to store session zip code", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	return nil
}

// GetSessionZipcode returns "" when the session has no zip code.
func (s *Store) GetSessionZipcode(ctx context.Context, sessionID string) (string, error) {
	code, err := s.rdb.Get(ctx, sessionZipKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		logger.Error("Failed to read session zip code", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return "", err
	}
	return code, nil
}
