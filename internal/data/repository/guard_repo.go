package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SubmissionGuard keeps one submission per key in flight. It only throttles
// duplicates; seat exclusivity is enforced by the database.
type SubmissionGuard interface {
	// Acquire returns an owner token and true when the key was free.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Release frees the key if token still owns it.
	Release(ctx context.Context, key, token string) error
}

const guardPrefix = "ticket-booking:guard:"

// releaseScript deletes the key only when it still holds the caller's token,
// so an expired-then-reacquired guard is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisGuard struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisGuard(client *redis.Client, log *zap.Logger) SubmissionGuard {
	return &redisGuard{
		client: client,
		log:    log.With(zap.String("repository", "guard")),
	}
}

func (g *redisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, guardPrefix+key, token, ttl).Result()
	if err != nil {
		g.log.Error("Failed to acquire submission guard",
			zap.Error(err),
			zap.String("key", key),
		)
		return "", false, fmt.Errorf("acquire guard %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *redisGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{guardPrefix + key}, token).Err(); err != nil {
		g.log.Warn("Failed to release submission guard",
			zap.Error(err),
			zap.String("key", key),
		)
		return fmt.Errorf("release guard %s: %w", key, err)
	}
	return nil
}

type noopGuard struct{}

// NewNoopGuard is used when Redis is not configured; every acquire succeeds.
func NewNoopGuard() SubmissionGuard {
	return noopGuard{}
}

func (noopGuard) Acquire(context.Context, string, time.Duration) (string, bool, error) {
	return "", true, nil
}

func (noopGuard) Release(context.Context, string, string) error {
	return nil
}
