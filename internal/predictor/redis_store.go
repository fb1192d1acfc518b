package predictor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisBundlePrefix = "tm"

// RedisStore keeps bundles as single Redis string values next to a version
// key. Both are written in one MULTI/EXEC, so readers never observe a partial
// bundle or a version that does not match it.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = redisBundlePrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(userID uint) string {
	return s.prefix + ":" + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisStore) versionKey(userID uint) string {
	return s.key(userID) + ":version"
}

func (s *RedisStore) Save(ctx context.Context, userID uint, b *Bundle) error {
	if s == nil || s.client == nil {
		return ErrStoreUnconfigured
	}
	data, err := EncodeBundle(b)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(userID), data, 0)
		pipe.Set(ctx, s.versionKey(userID), b.Version, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store bundle: %w", err)
	}
	return nil
}

// Stamp is the version of the stored bundle.
func (s *RedisStore) Stamp(ctx context.Context, userID uint) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrStoreUnconfigured
	}
	version, err := s.client.Get(ctx, s.versionKey(userID)).Result()
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("load bundle version: %w", err)
	}
	// a bundle written without a version key still counts
	n, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return "", fmt.Errorf("check bundle: %w", err)
	}
	if n == 0 {
		return "", nil
	}
	return "unversioned", nil
}

func (s *RedisStore) Load(ctx context.Context, userID uint) (*Bundle, error) {
	if s == nil || s.client == nil {
		return nil, ErrStoreUnconfigured
	}
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	return DecodeBundle(data)
}
