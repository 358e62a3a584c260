package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"newsrec/internal/embeddings"
)

// Key prefix for cached embeddings
const redisKeyPrefix = "embedding:"

// RedisStore keeps one redis key per cache entry. Entries carry no TTL; the
// cache is append-only for the store's lifetime.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new redis-backed store.
func NewRedisStore(addr, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
	}, nil
}

// redisKey hashes the text so arbitrarily long articles stay within sane key
// sizes. The full text lives in the value for Load.
func redisKey(key Key) string {
	sum := sha256.Sum256([]byte(key.Text))
	return redisKeyPrefix + key.Model + ":" + hex.EncodeToString(sum[:])
}

type redisEntry struct {
	Text   string            `json:"text"`
	Model  string            `json:"model"`
	Vector embeddings.Vector `json:"vector"`
}

// Load scans all embedding keys and rebuilds the mapping.
func (s *RedisStore) Load(ctx context.Context) (map[Key]embeddings.Vector, error) {
	entries := make(map[Key]embeddings.Vector)

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec redisEntry
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Val(), err)
		}
		entries[Key{Text: rec.Text, Model: rec.Model}] = rec.Vector
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Put stores a single entry.
func (s *RedisStore) Put(ctx context.Context, key Key, vec embeddings.Vector) error {
	data, err := json.Marshal(redisEntry{Text: key.Text, Model: key.Model, Vector: vec})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(key), data, 0).Err()
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
