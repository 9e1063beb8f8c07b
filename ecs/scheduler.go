package ecs

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/pool"
)

// scheduler partitions systems into stages by access-descriptor conflict: a system is placed in
// the earliest stage after every earlier-registered system it conflicts with. Systems inside a
// stage are pairwise non-conflicting and may run concurrently; stages run in order, separated
// by a barrier and a command-buffer flush. The partition preserves registration order for
// conflicting pairs, so outcomes are deterministic regardless of worker timing.
type scheduler struct {
	stages [][]SystemID
	staged int
}

func newScheduler() scheduler {
	return scheduler{}
}

// plan rebuilds the stage partition when new systems have been registered since the last plan.
// Enable/disable toggles don't invalidate the plan; disabled systems are skipped at run time.
func (sc *scheduler) plan(ss *systemStorage) {
	if sc.staged == ss.count() {
		return
	}

	stageOf := make([]int, ss.count())
	stageCount := 0
	for i := 0; i < ss.count(); i++ {
		stage := 0
		for j := 0; j < i; j++ {
			if stageOf[j] >= stage && ss.get(i).access.ConflictsWith(ss.get(j).access) {
				stage = stageOf[j] + 1
			}
		}
		stageOf[i] = stage
		if stage+1 > stageCount {
			stageCount = stage + 1
		}
	}

	sc.stages = make([][]SystemID, stageCount)
	for i, stage := range stageOf {
		sc.stages[stage] = append(sc.stages[stage], i)
	}
	sc.staged = ss.count()
}

// run executes one tick's worth of systems. Parallel systems within a stage are dispatched to
// the worker pool in waves bounded by the number of command-buffer slots, each wave member
// recording deferred mutations into its own slot. Sequential and exclusive systems run on the
// tick goroutine with slot 0. After each stage the command buffers are flushed in slot order.
// The first stage that produces errors aborts the tick.
func (sc *scheduler) run(w *World) error {
	sc.plan(&w.systems)

	for _, stage := range sc.stages {
		var parallel, inline []*SystemDescriptor
		for _, id := range stage {
			sys := w.systems.get(id)
			if !sys.enabled {
				continue
			}
			if sys.mode == ExecutorParallel && w.pool != nil {
				parallel = append(parallel, sys)
			} else {
				inline = append(inline, sys)
			}
		}

		var mu sync.Mutex
		var errs []error
		record := func(err error) {
			if err == nil {
				return
			}
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}

		// Wave size is capped by the worker slots so every concurrently running system owns a
		// distinct command buffer. The system -> slot mapping depends only on stage position,
		// never on worker timing.
		waveSize := w.commands.slotCount() - 1
		for start := 0; start < len(parallel); start += waveSize {
			wave := parallel[start:min(start+waveSize, len(parallel))]

			var wg pool.WaitGroup
			wg.Add(len(wave))
			for i, sys := range wave {
				sys := sys
				slot := i + 1
				submitted := w.pool.Submit(func() {
					defer wg.Done()
					record(sys.execute(w.systemContext(sys, slot)))
				})
				if !submitted {
					// Pool is shutting down; fall back to the tick goroutine.
					record(sys.execute(w.systemContext(sys, slot)))
					wg.Done()
				}
			}
			wg.Wait()
		}

		for _, sys := range inline {
			record(sys.execute(w.systemContext(sys, 0)))
		}

		if len(errs) > 0 {
			for _, err := range errs[1:] {
				w.logger.Error().Err(err).Msg("additional system failure in aborted stage")
			}
			return eris.Wrap(errs[0], "tick aborted")
		}

		if err := w.commands.flushAll(w); err != nil {
			return eris.Wrap(err, "command flush failed")
		}
	}
	return nil
}
