package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
)

const DefaultRedisKey = "tradesense:settings"

// RedisStore keeps the settings document as JSON under one key.
type RedisStore struct {
	rdb      *goredis.Client
	key      string
	defaults Settings
	log      *slog.Logger
}

// NewRedisStore returns a store under key. defaults fill a missing document,
// fields absent from a stored one, and Reset.
func NewRedisStore(rdb *goredis.Client, key string, defaults Settings, log *slog.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{rdb: rdb, key: key, defaults: clone(defaults), log: log}
}

// Get merges the stored document over the defaults. A missing or unusable
// document is replaced by the defaults.
func (r *RedisStore) Get(ctx context.Context) (Settings, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return r.Reset(ctx)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: redis get: %w", err)
	}

	s, err := decode(data, r.defaults)
	if err != nil {
		r.log.Warn("stored settings unusable, resetting", "key", r.key, "error", err)
		return r.Reset(ctx)
	}
	return s, nil
}

func (r *RedisStore) Update(ctx context.Context, p Patch) (Settings, error) {
	cur, err := r.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if p.Empty() {
		return cur, nil
	}
	next, err := p.Apply(cur)
	if err != nil {
		return cur, err
	}
	if err := r.persist(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

func (r *RedisStore) Reset(ctx context.Context) (Settings, error) {
	d := clone(r.defaults)
	if err := r.persist(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

func (r *RedisStore) persist(ctx context.Context, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("settings: redis set: %w", err)
	}
	return nil
}

// decode unmarshals over defaults so fields absent from older documents keep
// their default values.
func decode(data []byte, defaults Settings) (Settings, error) {
	s := clone(defaults)
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
