package queen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-engine/queen/ecs"
	"github.com/hive-engine/queen/snapshot"
)

type counter struct{ Value int }

func (counter) Name() string { return "Counter" }

func testConfig() Config {
	return Config{
		TickRate:      200,
		Workers:       2,
		QueueCapacity: 64,
		LogLevel:      "disabled",
	}
}

func TestEngine_RunTicksUntilCanceled(t *testing.T) {
	t.Parallel()

	engine, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	defer engine.Shutdown()

	w := engine.World()
	_, err = ecs.RegisterComponent[counter](w)
	require.NoError(t, err)

	e, err := w.SpawnWith(counter{})
	require.NoError(t, err)

	q, err := ecs.NewQuery(w, ecs.Write[counter]())
	require.NoError(t, err)
	_, err = w.RegisterSystem("increment", func(ctx ecs.SystemContext) error {
		ctx.Each(q, func(r ecs.Row) bool {
			if mut, ok := ecs.MutRow[counter](r); ok {
				mut.Get().Value++
			}
			return true
		})
		return nil
	}, ecs.WithAccess(q.Access()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, engine.Run(ctx))

	got, err := ecs.Get[counter](w, e)
	require.NoError(t, err)
	assert.Positive(t, got.Value, "the loop ticked at least once")
	assert.Equal(t, ecs.Tick(got.Value)+1, w.CurrentTick(), "one increment per tick")
}

func TestEngine_RunStopsOnSystemError(t *testing.T) {
	t.Parallel()

	engine, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	defer engine.Shutdown()

	_, err = engine.World().RegisterSystem("failing", func(ecs.SystemContext) error {
		return assert.AnError
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = engine.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEngine_SnapshotsThroughStorage(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	cfg := testConfig()
	cfg.SnapshotInterval = 1

	engine, err := New(context.Background(), cfg, WithSnapshotStorage(storage))
	require.NoError(t, err)
	defer engine.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, engine.Run(ctx))

	assert.Positive(t, storage.saves, "every tick produced a snapshot")
}

// recordingStorage counts saves; single-writer by construction, so no locking.
type recordingStorage struct {
	saves int
}

func (s *recordingStorage) Save(_ context.Context, _ string, _ uint32, _ []byte) error {
	s.saves++
	return nil
}

func (s *recordingStorage) Load(context.Context, string, uint32) ([]byte, error) {
	return nil, snapshot.ErrSnapshotNotFound
}

func (s *recordingStorage) Latest(context.Context, string) ([]byte, uint32, error) {
	return nil, 0, snapshot.ErrSnapshotNotFound
}

func (s *recordingStorage) Close() error { return nil }
