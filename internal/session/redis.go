package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bookline:session:"

// RedisStore persists sessions in a TTL-keyed redis store.
//
// If redis is unreachable the store degrades per operation to the injected
// MemoryStore: durability across restarts is lost but the turn never fails.
// Every degraded operation is logged.
type RedisStore struct {
	rdb      *redis.Client
	ttl      time.Duration
	fallback *MemoryStore
	log      *slog.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, fallback *MemoryStore, log *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{rdb: rdb, ttl: ttl, fallback: fallback, log: log}
}

func (r *RedisStore) Get(ctx context.Context, callID string) (CallSession, bool, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+callID).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(callID), false, nil
	}
	if err != nil {
		r.log.Warn("session store degraded to memory", "op", "get", "call_id", callID, "err", err)
		return r.fallback.Get(ctx, callID)
	}

	var s CallSession
	if err := json.Unmarshal(raw, &s); err != nil {
		// A corrupt record is unrecoverable; start the conversation over
		// rather than failing the turn.
		r.log.Error("session record corrupt, starting over", "call_id", callID, "err", err)
		return New(callID), false, nil
	}
	if !s.CurrentStep.Valid() {
		r.log.Error("session step outside state set, starting over", "call_id", callID, "step", s.CurrentStep)
		return New(callID), false, nil
	}
	return s, true, nil
}

func (r *RedisStore) Save(ctx context.Context, s CallSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+s.CallID, raw, r.ttl).Err(); err != nil {
		r.log.Warn("session store degraded to memory", "op", "save", "call_id", s.CallID, "err", err)
		return r.fallback.Save(ctx, s)
	}
	return nil
}

func (r *RedisStore) Reset(ctx context.Context, callID string) error {
	// Clear both layers so a recovered redis cannot resurrect a finished call.
	_ = r.fallback.Reset(ctx, callID)
	if err := r.rdb.Del(ctx, keyPrefix+callID).Err(); err != nil {
		r.log.Warn("session store degraded to memory", "op", "reset", "call_id", callID, "err", err)
	}
	return nil
}
