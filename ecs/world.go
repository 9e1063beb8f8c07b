package ecs

import (
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/hive-engine/queen/assert"
	"github.com/hive-engine/queen/pool"
)

// World is the facade over the whole runtime: entity allocation, archetype storage, queries,
// systems, deferred commands, events and observers. Direct structural mutation (Spawn, Despawn,
// Add, Remove) must happen on the tick goroutine; systems running on workers defer through
// their command buffer instead.
type World struct {
	id     uuid.UUID
	logger zerolog.Logger

	allocator  entityAllocator
	components componentManager
	index      componentIndex
	graph      archetypeGraph
	locations  locationMap
	resources  resourceManager

	systems   systemStorage
	sched     scheduler
	commands  commands
	events    eventRegistry
	observers observerRegistry

	pool *pool.WorkerPool
	tick Tick
}

// WorldOption configures a World at construction.
type WorldOption func(*World)

// WithLogger sets the world's logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// WithWorkerPool attaches a pool for parallel system execution. Without one, every system runs
// on the tick goroutine.
func WithWorkerPool(p *pool.WorkerPool) WorldOption {
	return func(w *World) {
		w.pool = p
	}
}

// WithCommandSlots sets the number of worker command-buffer slots, bounding how many systems
// may run concurrently within a stage. Defaults to GOMAXPROCS.
func WithCommandSlots(n int) WorldOption {
	return func(w *World) {
		if n >= 1 {
			w.commands = newCommands(n)
		}
	}
}

// NewWorld constructs an empty world. The tick counter starts at 1 so components attached
// before the first tick are still visible to Added/Changed filters.
func NewWorld(opts ...WorldOption) (*World, error) {
	w := &World{
		id:         uuid.New(),
		logger:     zerolog.Nop(),
		allocator:  newEntityAllocator(),
		components: newComponentManager(),
		index:      newComponentIndex(),
		locations:  newLocationMap(),
		resources:  newResourceManager(),
		systems:    newSystemStorage(),
		sched:      newScheduler(),
		events:     newEventRegistry(),
		observers:  newObserverRegistry(),
		tick:       1,
	}
	w.graph = newArchetypeGraph(&w.components, &w.index)

	for _, opt := range opts {
		opt(w)
	}
	if w.commands.slotCount() == 0 {
		w.commands = newCommands(runtime.GOMAXPROCS(0))
	}

	if _, err := registerComponent(w, registerOptions[childOf]{}, true); err != nil {
		return nil, eris.Wrap(err, "failed to register hierarchy component")
	}

	w.logger.Debug().Str("world", w.id.String()).Msg("world created")
	return w, nil
}

// ID returns the world's unique id.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Logger returns the world's logger.
func (w *World) Logger() *zerolog.Logger {
	return &w.logger
}

// CurrentTick returns the tick mutations are currently stamped with.
func (w *World) CurrentTick() Tick {
	return w.tick
}

func (w *World) currentTick() Tick {
	return w.tick
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.allocator.Count()
}

// ArchetypeCount returns the number of archetypes created so far, including the empty one.
func (w *World) ArchetypeCount() int {
	return w.graph.count()
}

// Alive reports whether the handle refers to a live entity.
func (w *World) Alive(e Entity) bool {
	return w.allocator.IsAlive(e)
}

// Commands returns the tick goroutine's command buffer, for deferring structural mutations
// from outside system bodies. Flushed at the next stage barrier or end of tick.
func (w *World) Commands() *CommandBuffer {
	return w.commands.buffer(0)
}

// ----------------------------------------------------------------------------------------
// Entity lifecycle
// ----------------------------------------------------------------------------------------

// Spawn creates a live entity with no components, stored in the empty archetype.
func (w *World) Spawn() (Entity, error) {
	return w.spawnWith()
}

// SpawnWith creates a live entity carrying the given component values. Every component type
// must be registered. Add observers fire once per component, after the entity is in place.
func (w *World) SpawnWith(components ...Component) (Entity, error) {
	return w.spawnWith(components...)
}

func (w *World) spawnWith(components ...Component) (Entity, error) {
	var mask bitmap.Bitmap
	for _, c := range components {
		cid, err := w.components.getID(c.Name())
		if err != nil {
			return EntityInvalid, eris.Wrap(err, "spawn with unregistered component")
		}
		mask.Set(cid)
	}

	e := w.allocator.Allocate()
	if e == EntityInvalid {
		return EntityInvalid, eris.New("entity index space exhausted")
	}

	arch := w.graph.findOrCreate(mask)
	row := arch.pushEntity(e, w.tick)
	for _, c := range components {
		cid, _ := w.components.getID(c.Name())
		arch.column(cid).setAbstract(row, c, w.tick)
	}
	w.locations.set(e.Index(), arch.id, row)

	for _, c := range components {
		cid, _ := w.components.getID(c.Name())
		w.observers.fire(w, TriggerAdd, cid, e, c)
	}
	return e, nil
}

// Despawn destroys a live entity. Remove observers fire for every component while the values
// are still readable, then drop hooks run and the slot is recycled. Stale handles of recycled
// slots never compare alive again.
func (w *World) Despawn(e Entity) error {
	if !w.allocator.IsAlive(e) {
		return eris.Wrapf(ErrEntityNotFound, "despawn of entity %d", e.Index())
	}

	rec, ok := w.locations.get(e.Index())
	assert.That(ok, "live entity %d has no location", e.Index())
	arch := w.graph.get(rec.arch)

	for _, col := range arch.columns {
		w.observers.fire(w, TriggerRemove, col.id(), e, col.getAbstract(int(rec.row)))
	}

	if moved, swapped := arch.swapRemove(int(rec.row)); swapped {
		w.locations.set(moved.Index(), arch.id, int(rec.row))
	}
	w.locations.clear(e.Index())
	w.allocator.Deallocate(e)
	return nil
}

// Clone spawns a copy of a live entity with the same component set and values, running each
// type's clone hook where one is registered. The copy shares the original's parent, if any.
func (w *World) Clone(e Entity) (Entity, error) {
	arch, row, err := w.locate(e)
	if err != nil {
		return EntityInvalid, err
	}

	components := make([]Component, 0, len(arch.columns))
	for _, col := range arch.columns {
		value := col.getAbstract(row)
		if clone := w.components.meta(col.id()).clone; clone != nil {
			value = clone(value)
		}
		components = append(components, value)
	}

	copied, err := w.spawnWith(components...)
	if err != nil {
		return EntityInvalid, err
	}
	if _, hasParent := w.Parent(copied); hasParent {
		w.markRelationship(copied)
	}
	return copied, nil
}

// SetEnabled toggles the disabled flag on a live entity. Disabled entities keep their
// components but are skipped by query iteration.
func (w *World) SetEnabled(e Entity, enabled bool) error {
	if !w.allocator.IsAlive(e) {
		return eris.Wrapf(ErrEntityNotFound, "toggle of entity %d", e.Index())
	}

	rec, ok := w.locations.get(e.Index())
	assert.That(ok, "live entity %d has no location", e.Index())
	arch := w.graph.get(rec.arch)

	stored := arch.entities[rec.row]
	if enabled {
		stored = stored.clearFlag(FlagDisabled)
	} else {
		stored = stored.setFlag(FlagDisabled)
	}
	arch.setEntity(int(rec.row), stored)
	return nil
}

// Enable makes the entity visible to queries again.
func (w *World) Enable(e Entity) error {
	return w.SetEnabled(e, true)
}

// Disable hides the entity from queries without touching its components.
func (w *World) Disable(e Entity) error {
	return w.SetEnabled(e, false)
}

// Enabled reports whether a live entity is visible to queries.
func (w *World) Enabled(e Entity) bool {
	if !w.allocator.IsAlive(e) {
		return false
	}
	rec, ok := w.locations.get(e.Index())
	assert.That(ok, "live entity %d has no location", e.Index())
	return !w.graph.get(rec.arch).entities[rec.row].HasFlag(FlagDisabled)
}

// ----------------------------------------------------------------------------------------
// Component operations
// ----------------------------------------------------------------------------------------

// locate resolves a live entity to its archetype and row.
func (w *World) locate(e Entity) (*archetype, int, error) {
	if !w.allocator.IsAlive(e) {
		return nil, 0, eris.Wrapf(ErrEntityNotFound, "entity %d", e.Index())
	}
	rec, ok := w.locations.get(e.Index())
	assert.That(ok, "live entity %d has no location", e.Index())
	return w.graph.get(rec.arch), int(rec.row), nil
}

// moveEntity transfers a row from src to the destination archetype, preserving the shared
// components' values and ticks, and fixes up both affected locations. Returns the entity's new
// row in dst.
func (w *World) moveEntity(e Entity, src *archetype, row int, dst *archetype) int {
	stored := src.entities[row]
	dstRow := dst.pushEntity(stored, w.tick)
	src.moveRow(dst, row, dstRow)
	if moved, swapped := src.swapRemoveMoved(row, dst); swapped {
		w.locations.set(moved.Index(), src.id, row)
	}
	w.locations.set(e.Index(), dst.id, dstRow)
	return dstRow
}

// addAbstract attaches a component value to an entity, moving it along the archetype graph's
// cached add edge. If the component is already present the value is overwritten in place and
// Set observers fire instead of Add observers.
func (w *World) addAbstract(e Entity, c Component) error {
	cid, err := w.components.getID(c.Name())
	if err != nil {
		return err
	}
	src, row, err := w.locate(e)
	if err != nil {
		return err
	}

	if src.contains(cid) {
		src.column(cid).setAbstract(row, c, w.tick)
		w.observers.fire(w, TriggerSet, cid, e, c)
		return nil
	}

	dst := w.graph.addTarget(src, cid)
	dstRow := w.moveEntity(e, src, row, dst)
	dst.column(cid).setAbstract(dstRow, c, w.tick)
	w.observers.fire(w, TriggerAdd, cid, e, c)
	return nil
}

// setAbstract overwrites a component value the entity already has.
func (w *World) setAbstract(e Entity, c Component) error {
	cid, err := w.components.getID(c.Name())
	if err != nil {
		return err
	}
	src, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if !src.contains(cid) {
		return eris.Wrapf(ErrComponentNotFound, "set of component %s on entity %d", c.Name(), e.Index())
	}
	src.column(cid).setAbstract(row, c, w.tick)
	w.observers.fire(w, TriggerSet, cid, e, c)
	return nil
}

// removeComponent detaches a component, firing Remove observers while the value is readable,
// then moving the entity along the cached remove edge. The drop hook runs on the discarded
// value exactly once.
func (w *World) removeComponent(e Entity, cid ComponentID) error {
	src, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if !src.contains(cid) {
		return eris.Wrapf(ErrComponentNotFound, "remove of component %d from entity %d", cid, e.Index())
	}

	w.observers.fire(w, TriggerRemove, cid, e, src.column(cid).getAbstract(row))

	dst := w.graph.removeTarget(src, cid)
	w.moveEntity(e, src, row, dst)
	return nil
}

// removeByName is the lenient flush-path variant: removing an absent component is a no-op.
func (w *World) removeByName(e Entity, name string) error {
	cid, err := w.components.getID(name)
	if err != nil {
		return err
	}
	src, _, err := w.locate(e)
	if err != nil {
		return err
	}
	if !src.contains(cid) {
		return nil
	}
	return w.removeComponent(e, cid)
}

// Add attaches a component value to an entity, overwriting it if already present.
func Add[T Component](w *World, e Entity, value T) error {
	return w.addAbstract(e, value)
}

// AddDefault attaches component T with its default-constructed value: the registered construct
// hook's output, or the zero value without one. A no-op if the component is already present.
func AddDefault[T Component](w *World, e Entity) error {
	var zero T
	cid, err := w.components.getID(zero.Name())
	if err != nil {
		return err
	}
	src, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if src.contains(cid) {
		return nil
	}

	dst := w.graph.addTarget(src, cid)
	dstRow := w.moveEntity(e, src, row, dst)
	w.observers.fire(w, TriggerAdd, cid, e, dst.column(cid).getAbstract(dstRow))
	return nil
}

// Set overwrites a component value the entity already has.
func Set[T Component](w *World, e Entity, value T) error {
	return w.setAbstract(e, value)
}

// Remove detaches component T from an entity. Removing an absent component is an error.
func Remove[T Component](w *World, e Entity) error {
	var zero T
	cid, err := w.components.getID(zero.Name())
	if err != nil {
		return err
	}
	return w.removeComponent(e, cid)
}

// Get returns a copy of component T on an entity.
func Get[T Component](w *World, e Entity) (T, error) {
	var zero T
	arch, row, err := w.locate(e)
	if err != nil {
		return zero, err
	}
	col := getColumn[T](w, arch)
	if col == nil {
		return zero, eris.Wrapf(ErrComponentNotFound, "component %s on entity %d", zero.Name(), e.Index())
	}
	return col.get(row), nil
}

// GetMut returns a deferred mutable handle to component T on an entity. The component is
// stamped changed only when the handle is dereferenced.
func GetMut[T Component](w *World, e Entity) (Mut[T], error) {
	var zero T
	arch, row, err := w.locate(e)
	if err != nil {
		return Mut[T]{}, err
	}
	col := getColumn[T](w, arch)
	if col == nil {
		return Mut[T]{}, eris.Wrapf(ErrComponentNotFound, "component %s on entity %d", zero.Name(), e.Index())
	}
	return Mut[T]{col: col, row: row, now: w.tick}, nil
}

// Has reports whether a live entity has component T.
func Has[T Component](w *World, e Entity) bool {
	var zero T
	cid, err := w.components.getID(zero.Name())
	if err != nil {
		return false
	}
	arch, _, err := w.locate(e)
	if err != nil {
		return false
	}
	return arch.contains(cid)
}

// ----------------------------------------------------------------------------------------
// Systems and ticking
// ----------------------------------------------------------------------------------------

// systemOptions carries the optional pieces of a system registration.
type systemOptions struct {
	access *AccessDescriptor
	mode   ExecutorMode
}

// SystemOption configures a system registration.
type SystemOption func(*systemOptions)

// WithAccess declares the system's access footprint. Systems registered without one conflict
// with nothing and must not touch components or resources; use a query's Access() or build a
// descriptor by hand.
func WithAccess(access *AccessDescriptor) SystemOption {
	return func(o *systemOptions) {
		o.access = access
	}
}

// WithMode selects the executor mode. Defaults to sequential.
func WithMode(mode ExecutorMode) SystemOption {
	return func(o *systemOptions) {
		o.mode = mode
	}
}

// RegisterSystem adds a named system to the world. Registration order is the order conflicting
// systems run in; names must be unique.
func (w *World) RegisterSystem(name string, fn SystemFn, opts ...SystemOption) (*SystemDescriptor, error) {
	var options systemOptions
	for _, opt := range opts {
		opt(&options)
	}
	sys, err := w.systems.register(name, fn, options.access, options.mode)
	if err != nil {
		return nil, err
	}
	w.logger.Debug().Str("system", name).Int("id", sys.id).Msg("registered system")
	return sys, nil
}

// EnableSystem resumes a system's participation in ticks.
func (w *World) EnableSystem(name string) error {
	return w.systems.setEnabled(name, true)
}

// DisableSystem suspends a system. Its lastRun freezes, so change filters catch up on the
// missed ticks when it is re-enabled.
func (w *World) DisableSystem(name string) error {
	return w.systems.setEnabled(name, false)
}

// systemContext assembles the context a system body runs with.
func (w *World) systemContext(sys *SystemDescriptor, slot int) SystemContext {
	logger := w.logger.With().Str("system", sys.name).Logger()
	return SystemContext{
		World:   w,
		Tick:    w.tick,
		LastRun: sys.lastRun,
		Logger:  &logger,
		Buffer:  w.commands.buffer(slot),
	}
}

// Tick advances the world one step: systems run stage by stage with command flushes at each
// barrier, leftover commands flush, event buffers swap, and the tick counter advances. A system
// error aborts the tick with commands recorded by completed stages already applied.
func (w *World) Tick() error {
	start := time.Now()

	if err := w.sched.run(w); err != nil {
		return err
	}
	if err := w.commands.flushAll(w); err != nil {
		return eris.Wrap(err, "end-of-tick command flush failed")
	}
	w.events.swapAll()

	w.logger.Debug().
		Uint32("tick", uint32(w.tick)).
		Dur("duration", time.Since(start)).
		Msg("tick complete")
	w.tick++
	return nil
}

// Clear despawns every entity, running Remove observers and drop hooks, and drops all queued
// events and pending commands. Registered components, systems and archetypes survive.
func (w *World) Clear() {
	for _, arch := range w.graph.arena {
		for arch.entityCount() > 0 {
			row := arch.entityCount() - 1
			e := arch.entities[row]
			for _, col := range arch.columns {
				w.observers.fire(w, TriggerRemove, col.id(), e, col.getAbstract(row))
			}
			arch.swapRemove(row)
		}
	}
	w.locations.reset()
	w.allocator.Clear()
	w.events.clearAll()
	for _, buf := range w.commands.buffers {
		buf.reset()
	}
}
