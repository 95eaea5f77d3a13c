// pkg/directory/redis.go
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const correlationKeyPrefix = "correlation:provider:"

// redisCorrelations keeps message correlations in Redis. Point lookup and
// upsert by the provider message id map directly onto keys; rows persist
// until overwritten (no TTL is set).
type redisCorrelations struct {
	cli *redis.Client
	log *zap.SugaredLogger
}

// NewRedisCorrelationStore builds a Redis-backed CorrelationStore.
func NewRedisCorrelationStore(cli *redis.Client, log *zap.SugaredLogger) CorrelationStore {
	return &redisCorrelations{cli: cli, log: log}
}

func (r *redisCorrelations) SaveCorrelation(ctx context.Context, c MessageCorrelation) error {
	key := correlationKeyPrefix + c.ProviderMessageID
	if err := r.cli.HSet(ctx, key, "crm_message_id", c.CrmMessageID, "sub_account_id", c.SubAccountID).Err(); err != nil {
		return fmt.Errorf("directory: redis hset: %w", err)
	}
	return nil
}

func (r *redisCorrelations) CorrelationByProviderMessageID(ctx context.Context, providerMessageID string) (MessageCorrelation, error) {
	key := correlationKeyPrefix + providerMessageID
	vals, err := r.cli.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return MessageCorrelation{}, ErrNotFound
		}
		return MessageCorrelation{}, fmt.Errorf("directory: redis hgetall: %w", err)
	}
	if len(vals) == 0 {
		return MessageCorrelation{}, ErrNotFound
	}
	return MessageCorrelation{
		ProviderMessageID: providerMessageID,
		CrmMessageID:      vals["crm_message_id"],
		SubAccountID:      vals["sub_account_id"],
	}, nil
}
