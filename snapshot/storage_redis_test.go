package snapshot_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-engine/queen/snapshot"
)

func newRedisStorage(t *testing.T) *snapshot.RedisStorage {
	t.Helper()
	srv := miniredis.RunT(t)
	storage, err := snapshot.NewRedisStorage(context.Background(), srv.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestRedisStorage_SaveLoad(t *testing.T) {
	t.Parallel()
	storage := newRedisStorage(t)
	ctx := context.Background()

	dump := []byte(`{"version":1,"entities":[]}`)
	require.NoError(t, storage.Save(ctx, "world-a", 10, dump))

	got, err := storage.Load(ctx, "world-a", 10)
	require.NoError(t, err)
	assert.Equal(t, dump, got)

	_, err = storage.Load(ctx, "world-a", 11)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
	_, err = storage.Load(ctx, "world-b", 10)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
}

func TestRedisStorage_Latest(t *testing.T) {
	t.Parallel()
	storage := newRedisStorage(t)
	ctx := context.Background()

	_, _, err := storage.Latest(ctx, "world-a")
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)

	require.NoError(t, storage.Save(ctx, "world-a", 5, []byte("five")))
	require.NoError(t, storage.Save(ctx, "world-a", 9, []byte("nine")))

	dump, tick, err := storage.Latest(ctx, "world-a")
	require.NoError(t, err)
	assert.Equal(t, uint32(9), tick)
	assert.Equal(t, []byte("nine"), dump)

	// Earlier ticks stay addressable.
	dump, err = storage.Load(ctx, "world-a", 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("five"), dump)
}

func TestRedisStorage_SaveOverwrites(t *testing.T) {
	t.Parallel()
	storage := newRedisStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, "world-a", 3, []byte("old")))
	require.NoError(t, storage.Save(ctx, "world-a", 3, []byte("new")))

	dump, err := storage.Load(ctx, "world-a", 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), dump)
}

func TestRedisStorage_WorldsIsolated(t *testing.T) {
	t.Parallel()
	storage := newRedisStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, "world-a", 1, []byte("a")))
	require.NoError(t, storage.Save(ctx, "world-b", 2, []byte("b")))

	dump, tick, err := storage.Latest(ctx, "world-a")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tick)
	assert.Equal(t, []byte("a"), dump)
}

func TestRedisStorage_BadAddress(t *testing.T) {
	t.Parallel()

	_, err := snapshot.NewRedisStorage(context.Background(), "127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestNopStorage(t *testing.T) {
	t.Parallel()
	storage := snapshot.NewNopStorage()
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, "w", 1, []byte("x")))
	_, err := storage.Load(ctx, "w", 1)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
	_, _, err = storage.Latest(ctx, "w")
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
	require.NoError(t, storage.Close())
}
