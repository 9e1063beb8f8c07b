package ecs

import (
	"math"

	"github.com/hive-engine/queen/assert"
)

// Entity is a generational handle to an entity: a 32-bit slot index, a 16-bit generation and
// 16 bits of flags packed into a single value. Two entities refer to the same live entity iff
// their index and generation match; a stale handle whose slot has since been recycled never
// compares alive.
type Entity uint64

const (
	entityIndexBits      = 32
	entityGenerationBits = 16

	entityIndexMask      = (1 << entityIndexBits) - 1
	entityGenerationMask = (1 << entityGenerationBits) - 1
)

// Entity flags. Flags are carried in the handle for cheap inspection; the allocator slot is
// the source of truth for liveness.
const (
	FlagAlive uint16 = 1 << iota
	FlagDisabled
	FlagPendingDelete
	FlagHasRelationships
)

// MaxEntityIndex is the largest slot index the allocator will issue.
const MaxEntityIndex = math.MaxUint32 - 1

// EntityInvalid is the zero sentinel handle. It never compares alive.
const EntityInvalid Entity = 0

func newEntity(index uint32, generation uint16, flags uint16) Entity {
	return Entity(uint64(index) |
		uint64(generation)<<entityIndexBits |
		uint64(flags)<<(entityIndexBits+entityGenerationBits))
}

// Index returns the slot index of the entity.
func (e Entity) Index() uint32 {
	return uint32(e & entityIndexMask)
}

// Generation returns the generation the handle was issued with.
func (e Entity) Generation() uint16 {
	return uint16((e >> entityIndexBits) & entityGenerationMask)
}

// Flags returns the flag bits of the handle.
func (e Entity) Flags() uint16 {
	return uint16(e >> (entityIndexBits + entityGenerationBits))
}

// HasFlag returns true if the given flag bit is set on the handle.
func (e Entity) HasFlag(flag uint16) bool {
	return e.Flags()&flag != 0
}

func (e Entity) withFlags(flags uint16) Entity {
	return newEntity(e.Index(), e.Generation(), flags)
}

func (e Entity) setFlag(flag uint16) Entity {
	return e.withFlags(e.Flags() | flag)
}

func (e Entity) clearFlag(flag uint16) Entity {
	return e.withFlags(e.Flags() &^ flag)
}

// Equals compares entity identity: index and generation. Flags are bookkeeping, not identity.
func (e Entity) Equals(other Entity) bool {
	return e.Index() == other.Index() && e.Generation() == other.Generation()
}

// IsValid returns true if the handle was issued by an allocator, regardless of whether the
// entity is still alive.
func (e Entity) IsValid() bool {
	return e.HasFlag(FlagAlive)
}

// entitySlot is the allocator's per-index record. The stored generation is the generation of
// the handle currently (or most recently) occupying the slot.
type entitySlot struct {
	generation uint16
	alive      bool
}

// entityAllocator issues and recycles generational entity handles. Freed slots are reused in
// FIFO order; every recycle bumps the slot generation so stale handles go dead.
type entityAllocator struct {
	slots []entitySlot
	free  []uint32
}

func newEntityAllocator() entityAllocator {
	return entityAllocator{
		slots: make([]entitySlot, 0),
		free:  make([]uint32, 0),
	}
}

// Allocate returns a live entity with a fresh or recycled index. Returns EntityInvalid when
// the index space is exhausted.
func (ea *entityAllocator) Allocate() Entity {
	var index uint32
	if len(ea.free) > 0 {
		index = ea.free[0]
		ea.free = ea.free[1:]
	} else {
		if len(ea.slots) > MaxEntityIndex {
			return EntityInvalid
		}
		index = uint32(len(ea.slots))
		ea.slots = append(ea.slots, entitySlot{})
	}

	slot := &ea.slots[index]
	assert.That(!slot.alive, "allocated slot %d is already alive", index)
	slot.alive = true

	return newEntity(index, slot.generation, FlagAlive)
}

// Deallocate kills the entity and queues its slot for reuse. Deallocating an entity that is
// not alive (including a second deallocation of the same handle) is a no-op returning false,
// so a slot can never be pushed onto the free list twice.
func (ea *entityAllocator) Deallocate(e Entity) bool {
	if !ea.IsAlive(e) {
		return false
	}

	slot := &ea.slots[e.Index()]
	slot.alive = false
	slot.generation++ // Stale handles must never compare alive again.
	ea.free = append(ea.free, e.Index())
	return true
}

// IsAlive reports whether the handle refers to a currently live entity. O(1).
func (ea *entityAllocator) IsAlive(e Entity) bool {
	index := e.Index()
	if int(index) >= len(ea.slots) {
		return false
	}
	slot := ea.slots[index]
	return slot.alive && slot.generation == e.Generation()
}

// Count returns the number of live entities.
func (ea *entityAllocator) Count() int {
	count := 0
	for _, slot := range ea.slots {
		if slot.alive {
			count++
		}
	}
	return count
}

// Clear resets the allocator. Subsequent allocations restart indices from zero with fresh
// generations.
func (ea *entityAllocator) Clear() {
	ea.slots = ea.slots[:0]
	ea.free = ea.free[:0]
}
