package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL       = 14 * 24 * time.Hour
	maxUpdateRetries = 5
)

// RedisStore keeps sessions as JSON under session:<id> with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) getKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	return r.read(ctx, r.client, id)
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// request for the same session wrote in between.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := r.getKey(id)
	var result *Session

	txf := func(tx *redis.Tx) error {
		sess, err := r.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			result = sess
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.getKey(id)).Err()
}

func (r *RedisStore) read(ctx context.Context, c redis.Cmdable, id string) (*Session, error) {
	data, err := c.Get(ctx, r.getKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, err
	}

	sess := New(id)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}
