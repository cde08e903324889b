package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

const (
	redisKeyPrefix = "doc:"
	redisScanCount = 500
)

// RedisStore keeps documents as plain string keys. Transact uses
// WATCH/MULTI/EXEC, so a concurrent write to the key aborts the EXEC and
// surfaces as models.ErrConflict.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(ref models.DocRef) string {
	return redisKeyPrefix + ref.Collection + ":" + ref.ID
}

func (s *RedisStore) Get(ctx context.Context, ref models.DocRef) ([]byte, error) {
	body, err := s.client.Get(ctx, redisKey(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return body, nil
}

func (s *RedisStore) Transact(ctx context.Context, ref models.DocRef, fn logic.TxFunc) error {
	key := redisKey(ref)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return models.ErrConflict
	}
	return err
}

// BatchWrite sets every document inside one MULTI/EXEC.
func (s *RedisStore) BatchWrite(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range docs {
			pipe.Set(ctx, redisKey(d.Ref), d.Body, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch write: %w", err)
	}
	return nil
}

// Query scans for keys under the collection and prefix and loads them with MGET.
func (s *RedisStore) Query(ctx context.Context, collection, idPrefix string) ([]models.Document, error) {
	base := redisKeyPrefix + collection + ":"
	pattern := escapeGlob(base+idPrefix) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	out := make([]models.Document, 0, len(keys))
	for chunk := range slices.Chunk(keys, redisScanCount) {
		vals, err := s.client.MGet(ctx, chunk...).Result()
		if err != nil {
			return nil, fmt.Errorf("mget %s: %w", collection, err)
		}
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				// Deleted between SCAN and MGET.
				continue
			}
			out = append(out, models.Document{
				Ref:  models.DocRef{Collection: collection, ID: strings.TrimPrefix(chunk[i], base)},
				Body: []byte(str),
			})
		}
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// escapeGlob escapes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ logic.DocumentStore = (*RedisStore)(nil)
