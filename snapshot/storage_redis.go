package snapshot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisStorage persists snapshots in Redis. Each dump lives under its own key and a per-world
// pointer tracks the latest tick.
type RedisStorage struct {
	client *redis.Client
}

var _ Storage = &RedisStorage{}

// NewRedisStorage connects to the given Redis address and verifies the connection.
func NewRedisStorage(ctx context.Context, address, password string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrapf(err, "failed to connect to redis at %s", address)
	}
	return &RedisStorage{client: client}, nil
}

func snapshotKey(worldID string, tick uint32) string {
	return fmt.Sprintf("queen:snapshot:%s:%d", worldID, tick)
}

func latestKey(worldID string) string {
	return fmt.Sprintf("queen:snapshot:%s:latest", worldID)
}

func (s *RedisStorage) Save(ctx context.Context, worldID string, tick uint32, dump []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, snapshotKey(worldID, tick), dump, 0)
	pipe.Set(ctx, latestKey(worldID), strconv.FormatUint(uint64(tick), 10), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "failed to save snapshot of world %s at tick %d", worldID, tick)
	}
	return nil
}

func (s *RedisStorage) Load(ctx context.Context, worldID string, tick uint32) ([]byte, error) {
	dump, err := s.client.Get(ctx, snapshotKey(worldID, tick)).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "world %s tick %d", worldID, tick)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load snapshot of world %s at tick %d", worldID, tick)
	}
	return dump, nil
}

func (s *RedisStorage) Latest(ctx context.Context, worldID string) ([]byte, uint32, error) {
	raw, err := s.client.Get(ctx, latestKey(worldID)).Result()
	if eris.Is(err, redis.Nil) {
		return nil, 0, eris.Wrapf(ErrSnapshotNotFound, "world %s", worldID)
	}
	if err != nil {
		return nil, 0, eris.Wrapf(err, "failed to resolve latest snapshot of world %s", worldID)
	}

	tick, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "corrupt latest-tick pointer for world %s", worldID)
	}
	dump, err := s.Load(ctx, worldID, uint32(tick))
	if err != nil {
		return nil, 0, err
	}
	return dump, uint32(tick), nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
