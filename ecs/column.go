package ecs

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/assert"
)

// columnFactory is a function that creates a new abstractColumn instance.
type columnFactory func() abstractColumn

// abstractColumn is the type-erased view of a column used by archetypes. Every mutation keeps
// the per-row ComponentTicks parallel to the data.
type abstractColumn interface {
	id() ComponentID
	name() string
	len() int

	// bind fixes the column's component id. Called once, when the owning archetype is built.
	bind(cid ComponentID)

	// extend appends a default-constructed row stamped with the given tick.
	extend(now Tick)
	// pop removes the last row, running the drop hook on its value.
	pop()
	// swapRemove moves the last row into the given row and pops, running the drop hook on the
	// removed value. The caller mirrors the same swap across the archetype's other columns and
	// entity list.
	swapRemove(row int)
	// swapRemoveNoDrop is swapRemove without the drop hook, for rows whose value was just
	// transferred to another archetype and is therefore still live.
	swapRemoveNoDrop(row int)

	setAbstract(row int, component Component, now Tick)
	getAbstract(row int) Component

	ticks(row int) ComponentTicks
	markChanged(row int, now Tick)

	// transfer copies the value and ticks of a row into a row of another column of the same
	// component type. Used for archetype moves, where ticks must survive the move.
	transfer(dst abstractColumn, row, dstRow int)

	// marshalRow serializes one row's component value to JSON.
	marshalRow(row int) (json.RawMessage, error)
}

var _ abstractColumn = &column[Component]{}

// column stores one component type's contiguous values for one archetype, with the change-
// detection ticks alongside. Row i of every column in an archetype refers to the same logical
// entity.
type column[T Component] struct {
	compID    ComponentID
	compName  string
	values    []T
	rowTicks  []ComponentTicks
	dropFn    func(T) // optional destruct hook
	defaultFn func() T
}

const columnCapacity = 16

// newColumn creates a new column with the specified type.
func newColumn[T Component]() column[T] {
	var zero T
	return column[T]{
		compName: zero.Name(),
		values:   make([]T, 0, columnCapacity),
		rowTicks: make([]ComponentTicks, 0, columnCapacity),
	}
}

// newColumnFactory returns a function that constructs a new column of type T bound to the
// registered component metadata.
func newColumnFactory[T Component](opts registerOptions[T]) columnFactory {
	return func() abstractColumn {
		col := newColumn[T]()
		col.dropFn = opts.drop
		col.defaultFn = opts.construct
		return &col
	}
}

func (c *column[T]) bind(cid ComponentID) {
	c.compID = cid
}

func (c *column[T]) id() ComponentID {
	return c.compID
}

func (c *column[T]) name() string {
	return c.compName
}

func (c *column[T]) len() int {
	return len(c.values)
}

// extend adds a new row initialized with the default value (the construct hook if present,
// the zero value otherwise). Growth is geometric, so appends are amortized O(1).
func (c *column[T]) extend(now Tick) {
	if len(c.values) == cap(c.values) {
		newCap := cap(c.values) * 2
		if newCap == 0 {
			newCap = columnCapacity
		}
		grown := make([]T, len(c.values), newCap)
		copy(grown, c.values)
		c.values = grown

		grownTicks := make([]ComponentTicks, len(c.rowTicks), newCap)
		copy(grownTicks, c.rowTicks)
		c.rowTicks = grownTicks
	}

	var value T
	if c.defaultFn != nil {
		value = c.defaultFn()
	}
	c.values = append(c.values, value)
	c.rowTicks = append(c.rowTicks, newComponentTicks(now))
}

// pop removes the last row, invoking the drop hook on its value.
func (c *column[T]) pop() {
	last := len(c.values) - 1
	assert.That(last >= 0, "pop on empty column %s", c.compName)

	if c.dropFn != nil {
		c.dropFn(c.values[last])
	}
	var zero T
	c.values[last] = zero // release references held by the slot
	c.values = c.values[:last]
	c.rowTicks = c.rowTicks[:last]
}

// swapRemove moves the last row into the given row, then pops. The drop hook runs exactly once,
// on the removed value.
func (c *column[T]) swapRemove(row int) {
	last := len(c.values) - 1
	assert.That(row >= 0 && row <= last, "swapRemove row %d out of range on column %s", row, c.compName)

	if c.dropFn != nil {
		c.dropFn(c.values[row])
	}
	c.values[row] = c.values[last]
	c.rowTicks[row] = c.rowTicks[last]

	var zero T
	c.values[last] = zero
	c.values = c.values[:last]
	c.rowTicks = c.rowTicks[:last]
}

// swapRemoveNoDrop removes the row without invoking the drop hook. Used after the row's value
// has been transferred to another column, where dropping it would release a live value.
func (c *column[T]) swapRemoveNoDrop(row int) {
	last := len(c.values) - 1
	assert.That(row >= 0 && row <= last, "swapRemove row %d out of range on column %s", row, c.compName)

	c.values[row] = c.values[last]
	c.rowTicks[row] = c.rowTicks[last]

	var zero T
	c.values[last] = zero
	c.values = c.values[:last]
	c.rowTicks = c.rowTicks[:last]
}

// set sets the component in a given row and stamps it changed. Whenever possible prefer this
// over setAbstract since it avoids the type assertion and boxing.
func (c *column[T]) set(row int, component T, now Tick) {
	assert.That(row < len(c.values), "column isn't extended when entity is created")
	c.values[row] = component
	c.rowTicks[row].Changed = now
}

// setAbstract sets the component in a given row. Use only when the concrete type is unknown.
func (c *column[T]) setAbstract(row int, component Component, now Tick) {
	concrete, ok := component.(T)
	assert.That(ok, "tried to set the wrong component type on column %s", c.compName)
	c.set(row, concrete, now)
}

// get gets the value from a given row. Expects the caller to keep the row in bounds.
func (c *column[T]) get(row int) T {
	assert.That(row < len(c.values), "component row %d doesn't exist", row)
	return c.values[row]
}

func (c *column[T]) getAbstract(row int) Component {
	return c.get(row)
}

// ref returns a pointer to the value in a given row. The pointer is invalidated by any
// structural change to the archetype.
func (c *column[T]) ref(row int) *T {
	assert.That(row < len(c.values), "component row %d doesn't exist", row)
	return &c.values[row]
}

func (c *column[T]) ticks(row int) ComponentTicks {
	assert.That(row < len(c.rowTicks), "ticks row %d doesn't exist", row)
	return c.rowTicks[row]
}

func (c *column[T]) markChanged(row int, now Tick) {
	assert.That(row < len(c.rowTicks), "ticks row %d doesn't exist", row)
	c.rowTicks[row].Changed = now
}

// transfer copies one row's value and ticks into another column of the same component type.
func (c *column[T]) transfer(dst abstractColumn, row, dstRow int) {
	concrete, ok := dst.(*column[T])
	assert.That(ok, "transfer between mismatched column types on %s", c.compName)
	concrete.values[dstRow] = c.values[row]
	concrete.rowTicks[dstRow] = c.rowTicks[row]
}

func (c *column[T]) marshalRow(row int) (json.RawMessage, error) {
	data, err := json.Marshal(c.get(row))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to serialize component %s", c.compName)
	}
	return data, nil
}
