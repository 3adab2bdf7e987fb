package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"

	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
)

const (
	lastStateKeyPrefix = "presence:last:"
	cooldownKeyPrefix  = "presence:cooldown:"
)

// RedisTracker keeps per-station presence state in Redis so process
// restarts and horizontal scaling do not reset edge detection or cooldowns.
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

func (t *RedisTracker) LastState(ctx context.Context, stationID snowflake.ID) (presencedomain.State, error) {
	val, err := t.client.Get(ctx, lastStateKeyPrefix+stationID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return presencedomain.StateUnknown, nil
		}
		return presencedomain.StateUnknown, err
	}
	return presencedomain.State(val), nil
}

func (t *RedisTracker) SetLastState(ctx context.Context, stationID snowflake.ID, state presencedomain.State) error {
	return t.client.Set(ctx, lastStateKeyPrefix+stationID.String(), string(state), 0).Err()
}

func (t *RedisTracker) SetCooldown(ctx context.Context, stationID snowflake.ID, d time.Duration) error {
	return t.client.Set(ctx, cooldownKeyPrefix+stationID.String(), "1", d).Err()
}

func (t *RedisTracker) CooldownActive(ctx context.Context, stationID snowflake.ID) (bool, error) {
	n, err := t.client.Exists(ctx, cooldownKeyPrefix+stationID.String()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *RedisTracker) ClearCooldown(ctx context.Context, stationID snowflake.ID) error {
	return t.client.Del(ctx, cooldownKeyPrefix+stationID.String()).Err()
}
