package ecs

import (
	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/assert"
)

// commandKind discriminates deferred world mutations.
type commandKind uint8

const (
	cmdSpawn commandKind = iota
	cmdDespawn
	cmdAdd
	cmdRemove
	cmdSet
)

// command is one deferred mutation record.
type command struct {
	kind       commandKind
	entity     Entity
	component  Component   // add/set payload
	name       string      // remove target
	components []Component // spawn payload
}

// CommandBuffer records world mutations for later application. Systems never mutate structure
// mid-iteration; they record into the buffer of their worker slot, and the runtime flushes all
// buffers at the stage barrier. A buffer is owned by exactly one goroutine between flushes, so
// recording needs no synchronization.
type CommandBuffer struct {
	queue []command
}

// Spawn defers the creation of an entity carrying the given component values.
func (cb *CommandBuffer) Spawn(components ...Component) {
	cb.queue = append(cb.queue, command{kind: cmdSpawn, components: components})
}

// Despawn defers the destruction of an entity.
func (cb *CommandBuffer) Despawn(e Entity) {
	cb.queue = append(cb.queue, command{kind: cmdDespawn, entity: e})
}

// Add defers attaching a component value to an entity. If the entity already has the component
// the value is overwritten.
func (cb *CommandBuffer) Add(e Entity, c Component) {
	cb.queue = append(cb.queue, command{kind: cmdAdd, entity: e, component: c})
}

// Remove defers detaching a component from an entity. A no-op if the component is absent.
func (cb *CommandBuffer) Remove(e Entity, componentName string) {
	cb.queue = append(cb.queue, command{kind: cmdRemove, entity: e, name: componentName})
}

// Set defers overwriting a component value the entity already has. Dropped at flush time if the
// component is absent.
func (cb *CommandBuffer) Set(e Entity, c Component) {
	cb.queue = append(cb.queue, command{kind: cmdSet, entity: e, component: c})
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int {
	return len(cb.queue)
}

// reset clears the buffer, retaining capacity.
func (cb *CommandBuffer) reset() {
	cb.queue = cb.queue[:0]
}

// flush applies the recorded commands in record order. Commands targeting entities that died
// earlier in the flush (or during the stage) are dropped, not errors; a flush only fails on
// registry-level problems such as an unregistered component type.
func (cb *CommandBuffer) flush(w *World) error {
	for _, cmd := range cb.queue {
		switch cmd.kind {
		case cmdSpawn:
			if _, err := w.spawnWith(cmd.components...); err != nil {
				return eris.Wrap(err, "deferred spawn failed")
			}
		case cmdDespawn:
			if !w.Alive(cmd.entity) {
				continue
			}
			if err := w.Despawn(cmd.entity); err != nil {
				return eris.Wrap(err, "deferred despawn failed")
			}
		case cmdAdd:
			if !w.Alive(cmd.entity) {
				w.logger.Debug().Uint32("entity", cmd.entity.Index()).Msg("dropped deferred add targeting dead entity")
				continue
			}
			if err := w.addAbstract(cmd.entity, cmd.component); err != nil {
				return eris.Wrap(err, "deferred add failed")
			}
		case cmdRemove:
			if !w.Alive(cmd.entity) {
				w.logger.Debug().Uint32("entity", cmd.entity.Index()).Msg("dropped deferred remove targeting dead entity")
				continue
			}
			if err := w.removeByName(cmd.entity, cmd.name); err != nil {
				return eris.Wrap(err, "deferred remove failed")
			}
		case cmdSet:
			if !w.Alive(cmd.entity) {
				w.logger.Debug().Uint32("entity", cmd.entity.Index()).Msg("dropped deferred set targeting dead entity")
				continue
			}
			if err := w.setAbstract(cmd.entity, cmd.component); err != nil {
				if eris.Is(err, ErrComponentNotFound) {
					w.logger.Debug().Uint32("entity", cmd.entity.Index()).Msg("dropped deferred set for absent component")
					continue
				}
				return eris.Wrap(err, "deferred set failed")
			}
		}
	}
	cb.reset()
	return nil
}

// commands holds the fixed command-buffer slots. Slot 0 belongs to the tick goroutine; slots
// 1..n-1 are handed to concurrently executing systems, one per wave position. Slots are
// allocated once and reused every tick.
type commands struct {
	buffers []*CommandBuffer
}

// newCommands creates slots+1 buffers: one for the tick goroutine plus one per concurrent
// worker position.
func newCommands(workerSlots int) commands {
	assert.That(workerSlots >= 1, "command buffer needs at least one worker slot")
	buffers := make([]*CommandBuffer, workerSlots+1)
	for i := range buffers {
		buffers[i] = &CommandBuffer{}
	}
	return commands{buffers: buffers}
}

// buffer returns the command buffer of a slot. Out-of-range slots are a programming error in
// the dispatcher, not a recoverable condition.
func (c *commands) buffer(slot int) *CommandBuffer {
	assert.That(slot >= 0 && slot < len(c.buffers), "command buffer slot %d out of range", slot)
	return c.buffers[slot]
}

// slotCount returns the number of buffer slots.
func (c *commands) slotCount() int {
	return len(c.buffers)
}

// pending returns the total number of recorded commands across all slots.
func (c *commands) pending() int {
	total := 0
	for _, buf := range c.buffers {
		total += buf.Len()
	}
	return total
}

// flushAll applies every buffer in slot order. Within a slot, commands apply in record order,
// so flush outcomes depend only on the slot assignment, never on worker timing.
func (c *commands) flushAll(w *World) error {
	for slot, buf := range c.buffers {
		if err := buf.flush(w); err != nil {
			return eris.Wrapf(err, "flush of command slot %d", slot)
		}
	}
	return nil
}
