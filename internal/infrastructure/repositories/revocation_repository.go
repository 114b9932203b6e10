package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const revocationPrefix = "accesscontrol:revoked"

// TokenRevocationRedisRepository remembers logged-out token hashes until they expire.
type TokenRevocationRedisRepository struct {
	client redis.Cmdable
	logger *logrus.Logger
}

func NewTokenRevocationRedisRepository(client redis.Cmdable, logger *logrus.Logger) *TokenRevocationRedisRepository {
	return &TokenRevocationRedisRepository{client: client, logger: logger}
}

func (r *TokenRevocationRedisRepository) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already unusable
		return nil
	}
	key := fmt.Sprintf("%s:%s", revocationPrefix, tokenHash)
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token revocation in Redis: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"token_hash": tokenHash, "ttl": ttl}).Debug("redis: token revoked")
	}
	return nil
}

func (r *TokenRevocationRedisRepository) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	key := fmt.Sprintf("%s:%s", revocationPrefix, tokenHash)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation in Redis: %w", err)
	}
	return n > 0, nil
}
