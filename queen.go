// Package queen assembles the runtime: a world driven by a fixed-rate tick loop, with an
// optional worker pool for parallel systems, statsd metrics and Redis snapshot persistence.
package queen

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hive-engine/queen/ecs"
	"github.com/hive-engine/queen/log"
	"github.com/hive-engine/queen/pool"
	"github.com/hive-engine/queen/snapshot"
	"github.com/hive-engine/queen/statsd"
)

// Engine owns a world and everything around it: the tick loop, the worker pool and the
// snapshot pipeline.
type Engine struct {
	cfg       Config
	logger    zerolog.Logger
	world     *ecs.World
	pool      *pool.WorkerPool
	snapshots snapshot.Storage
}

// EngineOption configures an Engine beyond what the environment config covers.
type EngineOption func(*Engine)

// WithSnapshotStorage overrides the snapshot backend, bypassing the Redis config.
func WithSnapshotStorage(storage snapshot.Storage) EngineOption {
	return func(e *Engine) {
		e.snapshots = storage
	}
}

// New assembles an engine from the given configuration.
func New(ctx context.Context, cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: cfg.logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, nil); err != nil {
			return nil, eris.Wrap(err, "failed to init statsd")
		}
	}

	worldOpts := []ecs.WorldOption{ecs.WithLogger(e.logger)}
	if cfg.Workers >= 0 {
		e.pool = pool.NewWorkerPool(cfg.Workers, cfg.QueueCapacity)
		worldOpts = append(worldOpts, ecs.WithWorkerPool(e.pool))
	}
	if cfg.CommandSlots > 0 {
		worldOpts = append(worldOpts, ecs.WithCommandSlots(cfg.CommandSlots))
	}

	world, err := ecs.NewWorld(worldOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create world")
	}
	e.world = world

	if e.snapshots == nil {
		if cfg.RedisAddress != "" {
			storage, err := snapshot.NewRedisStorage(ctx, cfg.RedisAddress, cfg.RedisPassword)
			if err != nil {
				return nil, eris.Wrap(err, "failed to connect snapshot storage")
			}
			e.snapshots = storage
		} else {
			e.snapshots = snapshot.NewNopStorage()
		}
	}

	e.logger.Info().
		Str("world", world.ID().String()).
		Int("tick_rate", cfg.TickRate).
		Msg("engine assembled")
	return e, nil
}

// World returns the engine's world for registration and direct access.
func (e *Engine) World() *ecs.World {
	return e.world
}

// Run drives the world at the configured tick rate until the context is canceled or a tick
// fails. Snapshots are taken on the tick goroutine but persisted by a separate writer, so slow
// storage never stalls the loop.
func (e *Engine) Run(ctx context.Context) error {
	log.World(&e.logger, e.world, zerolog.DebugLevel)

	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))
	defer ticker.Stop()

	type pendingSnapshot struct {
		tick uint32
		dump []byte
	}
	snapshots := make(chan pendingSnapshot, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(snapshots)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}

			tick := e.world.CurrentTick()
			start := time.Now()
			if err := e.world.Tick(); err != nil {
				return eris.Wrapf(err, "tick %d failed", tick)
			}
			statsd.EmitTickStat(start, "tick")
			statsd.EmitGauge("entities", float64(e.world.EntityCount()), nil)

			if e.cfg.SnapshotInterval > 0 && uint32(tick)%uint32(e.cfg.SnapshotInterval) == 0 {
				dump, err := e.world.DumpJSON()
				if err != nil {
					return eris.Wrapf(err, "failed to dump world at tick %d", tick)
				}
				select {
				case snapshots <- pendingSnapshot{tick: uint32(tick), dump: dump}:
				default:
					e.logger.Warn().Uint32("tick", uint32(tick)).Msg("snapshot writer behind, dropping snapshot")
				}
			}
		}
	})

	g.Go(func() error {
		worldID := e.world.ID().String()
		for pending := range snapshots {
			if err := e.snapshots.Save(ctx, worldID, pending.tick, pending.dump); err != nil {
				e.logger.Error().Err(err).Uint32("tick", pending.tick).Msg("failed to persist snapshot")
			}
		}
		return nil
	})

	err := g.Wait()
	if eris.Is(err, context.Canceled) || eris.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Shutdown stops the worker pool and releases external connections. The engine is unusable
// afterwards.
func (e *Engine) Shutdown() {
	if e.pool != nil {
		e.pool.Shutdown()
	}
	if err := e.snapshots.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("failed to close snapshot storage")
	}
	if err := statsd.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("failed to close statsd client")
	}
	e.logger.Info().Msg("engine stopped")
}
