package ecs

import (
	"github.com/kelindar/bitmap"

	"github.com/hive-engine/queen/assert"
)

// ArchetypeID is the unique identifier for an archetype: its index in the graph's arena.
type ArchetypeID = int

// archetype holds every entity sharing one exact component set, stored column-per-component.
// NOTE: We store compCount instead of using Bitmap.Count() because counting bits is O(n) in
// the mask words. Columns live in a slice with a small id->slot map because component counts
// per archetype are small.
type archetype struct {
	id        ArchetypeID
	mask      bitmap.Bitmap // Bitmap of components contained in this archetype
	entities  []Entity      // List of entities of this archetype, parallel to every column
	columns   []abstractColumn
	colSlot   map[ComponentID]int
	compCount int

	// Cached structural-transition edges: component id -> neighboring archetype reached by
	// adding/removing that component. Filled lazily by the graph.
	addEdge    map[ComponentID]ArchetypeID
	removeEdge map[ComponentID]ArchetypeID
}

func newArchetypeStorage(aid ArchetypeID, mask bitmap.Bitmap, columns []abstractColumn) *archetype {
	assert.That(mask.Count() == len(columns), "mismatched number of columns and components")

	colSlot := make(map[ComponentID]int, len(columns))
	for i, col := range columns {
		colSlot[col.id()] = i
	}

	return &archetype{
		id:         aid,
		mask:       mask,
		entities:   make([]Entity, 0),
		columns:    columns,
		colSlot:    colSlot,
		compCount:  len(columns),
		addEdge:    make(map[ComponentID]ArchetypeID),
		removeEdge: make(map[ComponentID]ArchetypeID),
	}
}

// entityCount returns the number of entities stored in the archetype. Every column's length
// equals this count.
func (a *archetype) entityCount() int {
	return len(a.entities)
}

// contains returns true if the archetype stores the given component type.
func (a *archetype) contains(cid ComponentID) bool {
	return a.mask.Contains(cid)
}

// column returns the column for a component type, or nil if the archetype lacks it.
func (a *archetype) column(cid ComponentID) abstractColumn {
	slot, ok := a.colSlot[cid]
	if !ok {
		return nil
	}
	return a.columns[slot]
}

// hasAll returns true if the archetype contains every component in the given mask.
func (a *archetype) hasAll(mask bitmap.Bitmap) bool {
	intersect := mask.Clone(nil)
	intersect.And(a.mask)
	return intersect.Count() == mask.Count()
}

// hasAny returns true if the archetype contains at least one component in the given mask.
func (a *archetype) hasAny(mask bitmap.Bitmap) bool {
	intersect := mask.Clone(nil)
	intersect.And(a.mask)
	return intersect.Count() > 0
}

// exact returns true if the archetype's component set matches the given mask exactly.
func (a *archetype) exact(mask bitmap.Bitmap) bool {
	if a.compCount != mask.Count() {
		return false
	}
	return a.hasAll(mask)
}

// pushEntity appends the entity with default-constructed components and returns its row.
func (a *archetype) pushEntity(e Entity, now Tick) int {
	a.entities = append(a.entities, e)
	for _, col := range a.columns {
		col.extend(now)
		assert.That(col.len() == len(a.entities), "column length doesn't match entities")
	}
	return len(a.entities) - 1
}

// swapRemove removes the row from the entity list and every column, atomically from the
// caller's perspective. Returns the entity that was moved into the vacated row, or
// (EntityInvalid, false) when the removed row was the last one.
func (a *archetype) swapRemove(row int) (Entity, bool) {
	last := len(a.entities) - 1
	assert.That(row >= 0 && row <= last, "swapRemove row %d out of range", row)

	a.entities[row] = a.entities[last]
	a.entities = a.entities[:last]

	for _, col := range a.columns {
		col.swapRemove(row)
		assert.That(col.len() == len(a.entities), "column length doesn't match entities")
	}

	if row == last {
		return EntityInvalid, false
	}
	return a.entities[row], true
}

// swapRemoveMoved removes a row whose shared components were just transferred to dst. Columns
// dst also has skip their drop hook (the value lives on in dst); columns dst lacks run it (the
// value is discarded). Return semantics match swapRemove.
func (a *archetype) swapRemoveMoved(row int, dst *archetype) (Entity, bool) {
	last := len(a.entities) - 1
	assert.That(row >= 0 && row <= last, "swapRemove row %d out of range", row)

	a.entities[row] = a.entities[last]
	a.entities = a.entities[:last]

	for _, col := range a.columns {
		if dst.contains(col.id()) {
			col.swapRemoveNoDrop(row)
		} else {
			col.swapRemove(row)
		}
		assert.That(col.len() == len(a.entities), "column length doesn't match entities")
	}

	if row == last {
		return EntityInvalid, false
	}
	return a.entities[row], true
}

// moveRow copies the shared components of a row into a freshly pushed row of the destination
// archetype, preserving their change-detection ticks. Components the destination lacks are
// dropped with the source row; components the destination adds keep their default value and
// fresh ticks from pushEntity.
func (a *archetype) moveRow(dst *archetype, row, dstRow int) {
	for _, src := range a.columns {
		dstCol := dst.column(src.id())
		if dstCol == nil {
			continue
		}
		src.transfer(dstCol, row, dstRow)
	}
}

// setEntity replaces the stored handle at a row, keeping flags current after enable/disable.
func (a *archetype) setEntity(row int, e Entity) {
	assert.That(row < len(a.entities), "row %d out of range", row)
	a.entities[row] = e
}
