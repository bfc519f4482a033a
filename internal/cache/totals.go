package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shopcart/internal/models"
)

const (
	keyPrefix     = "cart:totals:"
	versionPrefix = "cart:totals:ver:"
)

// RedisTotals caches computed cart totals per user. Every user has a
// version counter bumped on invalidation; a computed value is only stored
// if the counter has not moved since it was read, so totals computed
// before a cart change can never land after it.
type RedisTotals struct {
	Client *redis.Client
	TTL    time.Duration
}

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisTotals(client *redis.Client, ttl time.Duration) *RedisTotals {
	return &RedisTotals{Client: client, TTL: ttl}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func versionKey(userID uuid.UUID) string {
	return versionPrefix + userID.String()
}

// Get returns the cached totals and the user's current version. On a miss
// the version is what Set must be called with.
func (c *RedisTotals) Get(ctx context.Context, userID uuid.UUID) (models.CartTotals, int64, bool, error) {
	var totals models.CartTotals

	vals, err := c.Client.MGet(ctx, key(userID), versionKey(userID)).Result()
	if err != nil {
		return totals, 0, false, err
	}

	version, err := parseVersion(vals[1])
	if err != nil {
		return totals, 0, false, err
	}

	raw, ok := vals[0].(string)
	if !ok {
		return totals, version, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &totals); err != nil {
		return totals, version, false, fmt.Errorf("decode cached totals: %w", err)
	}
	return totals, version, true, nil
}

// Set stores totals if the user's version still equals version. A lost
// race is not an error: the value is simply not cached.
func (c *RedisTotals) Set(ctx context.Context, userID uuid.UUID, version int64, totals models.CartTotals) error {
	raw, err := json.Marshal(totals)
	if err != nil {
		return err
	}

	vk := versionKey(userID)
	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		got, err := parseVersion(cur)
		if err != nil {
			return err
		}
		if got != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(userID), raw, c.TTL)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops cached totals and bumps each user's version.
func (c *RedisTotals) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, versionKey(id))
			pipe.Del(ctx, key(id))
		}
		return nil
	})
	return err
}

func parseVersion(v any) (int64, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode totals version: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("decode totals version: unexpected %T", v)
	}
}
