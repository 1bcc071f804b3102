// Package repo provides the storage collaborators of the pipeline: session
// context stores (Redis and in-memory) and the SQLite message/analytics
// repository.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

// RedisSessionStore keeps one JSON-encoded session context per session id
// with a sliding Redis TTL. Durability ends at the TTL; the store performs
// no sweeps of its own since Redis expires keys server-side.
type RedisSessionStore struct {
	rdb redis.Cmdable
}

func NewRedisSessionStore(rdb redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:context", sessionID)
}

// Get loads the context for a session id, (nil, nil) when none exists.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*model.SessionContext, error) {
	key := s.sessionKey(sessionID)

	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session context from redis")
		return nil, errx.WrapRedis(err)
	}

	var sc model.SessionContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to unmarshal session context")
		return nil, fmt.Errorf("unmarshal session context: %w", err)
	}
	return &sc, nil
}

// Set writes the context with the given TTL, refreshing expiry on touch.
func (s *RedisSessionStore) Set(ctx context.Context, sc *model.SessionContext, ttl time.Duration) error {
	b, err := json.Marshal(sc)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sc.SessionID).Msg("failed to marshal session context")
		return fmt.Errorf("marshal session context: %w", err)
	}

	key := s.sessionKey(sc.SessionID)
	if err := s.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write session context to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Expire drops the context immediately.
func (s *RedisSessionStore) Expire(ctx context.Context, sessionID string) error {
	key := s.sessionKey(sessionID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session context from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionStore = (*RedisSessionStore)(nil)
