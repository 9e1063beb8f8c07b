package ecs

import (
	"runtime/debug"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/hive-engine/queen/assert"
)

// SystemID is the dense index of a system in registration order.
type SystemID = int

// ExecutorMode selects how a system is dispatched by the scheduler.
type ExecutorMode uint8

const (
	// ExecutorSequential runs the system on the tick goroutine, in registration order relative
	// to other sequential systems.
	ExecutorSequential ExecutorMode = iota
	// ExecutorParallel allows the system to run on a worker alongside non-conflicting systems.
	ExecutorParallel
	// ExecutorExclusive runs the system alone with full world access.
	ExecutorExclusive
)

// SystemFn is the body of a system. Returning an error aborts the tick.
type SystemFn func(SystemContext) error

// SystemContext is everything a system body receives: the world, the current and last-run
// ticks for change detection, a logger tagged with the system name, and the command buffer
// assigned to the executing worker slot.
type SystemContext struct {
	World   *World
	Tick    Tick
	LastRun Tick
	Logger  *zerolog.Logger
	Buffer  *CommandBuffer
}

// Each runs the system's compiled query against the world, filtering change terms against the
// system's last run.
func (ctx SystemContext) Each(q *QueryDescriptor, fn func(Row) bool) {
	q.Each(ctx.World, ctx.LastRun, fn)
}

// SystemDescriptor is the per-system record: identity, access footprint, execution mode and
// the last tick the system ran (the baseline for its change detection).
type SystemDescriptor struct {
	id      SystemID
	name    string
	fn      SystemFn
	access  *AccessDescriptor
	mode    ExecutorMode
	enabled bool
	lastRun Tick
}

// ID returns the system's dense id.
func (s *SystemDescriptor) ID() SystemID { return s.id }

// Name returns the system's registered name.
func (s *SystemDescriptor) Name() string { return s.name }

// Access returns the system's declared access footprint.
func (s *SystemDescriptor) Access() *AccessDescriptor { return s.access }

// Enabled reports whether the system participates in ticks.
func (s *SystemDescriptor) Enabled() bool { return s.enabled }

// execute runs the system body and advances lastRun on success. Panics in the body are
// recovered into errors so one faulty system cannot take down the runtime.
func (s *SystemDescriptor) execute(ctx SystemContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("system %s panicked: %v\n%s", s.name, r, debug.Stack())
		}
	}()

	if err := s.fn(ctx); err != nil {
		return eris.Wrapf(err, "system %s failed", s.name)
	}
	s.lastRun = ctx.Tick
	return nil
}

// systemStorage holds systems in registration order with unique names.
type systemStorage struct {
	systems []*SystemDescriptor
	byName  map[string]SystemID
}

func newSystemStorage() systemStorage {
	return systemStorage{
		systems: make([]*SystemDescriptor, 0),
		byName:  make(map[string]SystemID),
	}
}

// register adds a system. Names must be unique and non-empty; the access descriptor defaults
// to empty when nil.
func (ss *systemStorage) register(name string, fn SystemFn, access *AccessDescriptor, mode ExecutorMode) (*SystemDescriptor, error) {
	if name == "" {
		return nil, eris.New("system name cannot be empty")
	}
	if _, exists := ss.byName[name]; exists {
		return nil, eris.Errorf("system %s is already registered", name)
	}
	if access == nil {
		access = NewAccessDescriptor()
	}
	if mode == ExecutorExclusive {
		access.WithWorldAccess(WorldAccessExclusive)
	}

	sys := &SystemDescriptor{
		id:      len(ss.systems),
		name:    name,
		fn:      fn,
		access:  access,
		mode:    mode,
		enabled: true,
	}
	ss.systems = append(ss.systems, sys)
	ss.byName[name] = sys.id
	return sys, nil
}

// get returns a system by id.
func (ss *systemStorage) get(id SystemID) *SystemDescriptor {
	assert.That(id >= 0 && id < len(ss.systems), "system id %d not registered", id)
	return ss.systems[id]
}

// getByName returns a system by name.
func (ss *systemStorage) getByName(name string) (*SystemDescriptor, bool) {
	id, ok := ss.byName[name]
	if !ok {
		return nil, false
	}
	return ss.systems[id], true
}

// setEnabled toggles a system's participation in ticks.
func (ss *systemStorage) setEnabled(name string, enabled bool) error {
	sys, ok := ss.getByName(name)
	if !ok {
		return eris.Errorf("system %s is not registered", name)
	}
	sys.enabled = enabled
	return nil
}

// count returns the number of registered systems.
func (ss *systemStorage) count() int {
	return len(ss.systems)
}
