package state

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 30 * 24 * time.Hour

// RedisRepository persists the snapshot in Redis, keyed per user, for
// sessions that roam between devices.
type RedisRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisRepository constructs a repository storing under a per-user key.
func NewRedisRepository(client *redis.Client, userID string, ttl time.Duration) (*RedisRepository, error) {
	if client == nil {
		return nil, errors.New("state: redis client is required")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("state: user id is required")
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisRepository{
		client: client,
		key:    "storefront:cart:" + uid,
		ttl:    ttl,
	}, nil
}

// Load fetches and decodes the snapshot.
func (r *RedisRepository) Load(ctx context.Context) (Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, notFoundError("state: no snapshot in redis")
	}
	if err != nil {
		return Snapshot{}, unavailableError("state: redis get failed", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, notFoundError("state: redis snapshot corrupt")
	}
	return snapshot, nil
}

// Save stores the snapshot with the configured TTL.
func (r *RedisRepository) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return unavailableError("state: encode failed", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return unavailableError("state: redis set failed", err)
	}
	return nil
}

// Clear deletes the key.
func (r *RedisRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return unavailableError("state: redis del failed", err)
	}
	return nil
}
