package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/pkg/logging"
)

// RedisStore keeps each collection as a membership set at the collection key
// plus one JSON value per document at <collection>:<id>. The set is what
// makes ExistsIn a single round trip.
type RedisStore struct {
	client *redis.Client
	logger *logging.Logger
}

func NewRedisStore(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{
		client: client,
		logger: logging.NewLogger("RedisStore"),
	}, nil
}

func docKey(parent Path, id string) string {
	return parent.Key() + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, parent Path, id string) ([]byte, error) {
	val, err := s.client.Get(ctx, docKey(parent, id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, docKey(parent, id))
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, parent Path, id string, doc []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(parent, id), doc, 0)
	pipe.SAdd(ctx, parent.Key(), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SetBatch(ctx context.Context, parent Path, docs map[string][]byte) error {
	if len(docs) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for id, doc := range docs {
		pipe.Set(ctx, docKey(parent, id), doc, 0)
		pipe.SAdd(ctx, parent.Key(), id)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("wrote document batch", "collection", parent.Key(), "count", len(docs))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, parent Path, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, docKey(parent, id))
	pipe.SRem(ctx, parent.Key(), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ListIDs(ctx context.Context, parent Path) ([]string, error) {
	return s.client.SMembers(ctx, parent.Key()).Result()
}

func (s *RedisStore) List(ctx context.Context, parent Path) (map[string][]byte, error) {
	ids, err := s.ListIDs(ctx, parent)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[string][]byte{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(parent, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make(map[string][]byte, len(ids))
	for i, val := range vals {
		raw, ok := val.(string)
		if !ok {
			// member without a value means a torn delete, skip it
			continue
		}
		docs[ids[i]] = []byte(raw)
	}
	return docs, nil
}

func (s *RedisStore) ExistsIn(ctx context.Context, parent Path, ids []string) ([]bool, error) {
	if err := checkInQuerySize(ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []bool{}, nil
	}
	return s.client.SMIsMember(ctx, parent.Key(), toAny(ids)...).Result()
}

func toAny(ids []string) []interface{} {
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	return members
}
