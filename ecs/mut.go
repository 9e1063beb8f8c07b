package ecs

import "github.com/hive-engine/queen/assert"

// Mut is a deferred mutable handle to one component value. Obtaining the handle does not mark
// the component changed; only dereferencing it through Get does. This keeps Changed-filtered
// queries precise when a system conditionally writes.
type Mut[T Component] struct {
	col *column[T]
	row int
	now Tick
}

// Get returns a pointer to the component value and stamps it changed at the current tick.
// The pointer is invalidated by any structural change to the entity's archetype.
func (m Mut[T]) Get() *T {
	assert.That(m.col != nil, "dereference of zero Mut handle")
	m.col.markChanged(m.row, m.now)
	return m.col.ref(m.row)
}

// Read returns the component value without marking it changed.
func (m Mut[T]) Read() T {
	assert.That(m.col != nil, "dereference of zero Mut handle")
	return m.col.get(m.row)
}

// Ticks returns the component's change-detection ticks.
func (m Mut[T]) Ticks() ComponentTicks {
	assert.That(m.col != nil, "dereference of zero Mut handle")
	return m.col.ticks(m.row)
}
