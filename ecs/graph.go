package ecs

import (
	"encoding/binary"

	"github.com/kelindar/bitmap"

	"github.com/hive-engine/queen/assert"
)

// archetypeGraph owns every archetype (an arena addressed by ArchetypeID) and caches the
// structural-transition edges between them. Archetypes are identified by the content key of
// their sorted component-id set, so two different transition paths reaching the same component
// set always resolve to the identical archetype. Archetypes are never destroyed during normal
// operation.
type archetypeGraph struct {
	arena      []*archetype
	byKey      map[string]ArchetypeID
	components *componentManager
	index      *componentIndex
}

// emptyArchetypeID is fixed: the empty archetype is created at construction.
const emptyArchetypeID ArchetypeID = 0

func newArchetypeGraph(components *componentManager, index *componentIndex) archetypeGraph {
	g := archetypeGraph{
		arena:      make([]*archetype, 0),
		byKey:      make(map[string]ArchetypeID),
		components: components,
		index:      index,
	}

	// The empty archetype has no columns and is never indexed (it contains no components).
	empty := newArchetypeStorage(emptyArchetypeID, bitmap.Bitmap{}, nil)
	g.arena = append(g.arena, empty)
	g.byKey[maskKey(empty.mask)] = emptyArchetypeID

	return g
}

// emptyArchetype returns the archetype with zero components.
func (g *archetypeGraph) emptyArchetype() *archetype {
	return g.arena[emptyArchetypeID]
}

// get resolves an archetype id through the arena.
func (g *archetypeGraph) get(aid ArchetypeID) *archetype {
	assert.That(aid >= 0 && aid < len(g.arena), "archetype id %d not found", aid)
	return g.arena[aid]
}

// count returns the number of archetypes in the arena.
func (g *archetypeGraph) count() int {
	return len(g.arena)
}

// findOrCreate returns the archetype for the given component mask, creating and indexing it
// on first use.
func (g *archetypeGraph) findOrCreate(mask bitmap.Bitmap) *archetype {
	key := maskKey(mask)
	if aid, exists := g.byKey[key]; exists {
		return g.arena[aid]
	}

	columns := make([]abstractColumn, 0, mask.Count())
	mask.Range(func(cid uint32) {
		meta := g.components.meta(cid)
		col := meta.factory()
		col.bind(cid)
		columns = append(columns, col)
	})

	aid := len(g.arena)
	arch := newArchetypeStorage(aid, mask.Clone(nil), columns)
	g.arena = append(g.arena, arch)
	g.byKey[key] = aid
	g.index.registerArchetype(arch)

	return arch
}

// addTarget returns the archetype reached by adding a component. If the archetype already has
// the component, it is returned unchanged. Edges are cached bidirectionally, so repeated
// transitions are O(1).
func (g *archetypeGraph) addTarget(arch *archetype, cid ComponentID) *archetype {
	if arch.contains(cid) {
		return arch
	}
	if target, exists := arch.addEdge[cid]; exists {
		return g.arena[target]
	}

	mask := arch.mask.Clone(nil)
	mask.Set(cid)
	target := g.findOrCreate(mask)

	arch.addEdge[cid] = target.id
	target.removeEdge[cid] = arch.id
	return target
}

// removeTarget returns the archetype reached by removing a component. Removing a component the
// archetype lacks is a no-op returning the same archetype.
func (g *archetypeGraph) removeTarget(arch *archetype, cid ComponentID) *archetype {
	if !arch.contains(cid) {
		return arch
	}
	if target, exists := arch.removeEdge[cid]; exists {
		return g.arena[target]
	}

	mask := arch.mask.Clone(nil)
	mask.Remove(cid)
	target := g.findOrCreate(mask)

	arch.removeEdge[cid] = target.id
	target.addEdge[cid] = arch.id
	return target
}

// maskKey builds the content key of a component mask: the little-endian concatenation of its
// sorted component ids. Trailing zero words in the bitmap don't affect the key, so masks built
// along different paths produce identical keys for identical sets.
func maskKey(mask bitmap.Bitmap) string {
	buf := make([]byte, 0, mask.Count()*4)
	mask.Range(func(cid uint32) {
		buf = binary.LittleEndian.AppendUint32(buf, cid)
	})
	return string(buf)
}
