package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bookline:profile:"

// RedisStore keeps caller profiles in redis with a long TTL.
//
// Unlike the session store there is no in-process fallback here: the
// profile is an optimization (returning-caller shortcut, preferences) and
// every caller treats reads and writes as best-effort already.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, mobile string) (CallerProfile, bool, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+mobile).Bytes()
	if errors.Is(err, redis.Nil) {
		return CallerProfile{}, false, nil
	}
	if err != nil {
		return CallerProfile{}, false, fmt.Errorf("profile: get: %w", err)
	}
	var p CallerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return CallerProfile{}, false, fmt.Errorf("profile: decode: %w", err)
	}
	return p, true, nil
}

func (r *RedisStore) Save(ctx context.Context, p CallerProfile) error {
	if p.Mobile == "" {
		return errors.New("profile: mobile is required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile: encode: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+p.Mobile, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("profile: save: %w", err)
	}
	return nil
}
