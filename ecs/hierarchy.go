package ecs

import "github.com/rotisserie/eris"

// childOf is the internal hierarchy component: its presence on an entity records that entity's
// parent. Internal components never appear in the JSON world dump's component map; the parent
// is surfaced as a top-level field instead.
type childOf struct {
	Parent Entity `json:"parent"`
}

func (childOf) Name() string {
	return "queen.internal.child_of"
}

// SetParent makes child a child of parent, replacing any existing parent link. Fails on dead
// handles, self-parenting and cycles.
func (w *World) SetParent(child, parent Entity) error {
	if !w.allocator.IsAlive(child) {
		return eris.Wrapf(ErrEntityNotFound, "child %d", child.Index())
	}
	if !w.allocator.IsAlive(parent) {
		return eris.Wrapf(ErrEntityNotFound, "parent %d", parent.Index())
	}
	if child.Equals(parent) {
		return eris.Errorf("entity %d cannot be its own parent", child.Index())
	}

	// Walk the ancestor chain of the prospective parent; reaching child would close a cycle.
	for ancestor, ok := parent, true; ok; ancestor, ok = w.Parent(ancestor) {
		if ancestor.Equals(child) {
			return eris.Errorf("parenting %d under %d would create a cycle", child.Index(), parent.Index())
		}
	}

	if err := w.addAbstract(child, childOf{Parent: parent}); err != nil {
		return err
	}
	w.markRelationship(child)
	w.markRelationship(parent)
	return nil
}

// Parent returns the parent of an entity. ok is false when the entity has no parent or the
// parent has since been despawned; the stale link is not an error, just absent.
func (w *World) Parent(child Entity) (Entity, bool) {
	arch, row, err := w.locate(child)
	if err != nil {
		return EntityInvalid, false
	}
	col := getColumn[childOf](w, arch)
	if col == nil {
		return EntityInvalid, false
	}
	parent := col.get(row).Parent
	if !w.allocator.IsAlive(parent) {
		return EntityInvalid, false
	}
	return parent, true
}

// ClearParent removes the parent link from an entity. A no-op if there is none.
func (w *World) ClearParent(child Entity) error {
	cid, err := w.components.getID(childOf{}.Name())
	if err != nil {
		return err
	}
	arch, _, err := w.locate(child)
	if err != nil {
		return err
	}
	if !arch.contains(cid) {
		return nil
	}
	return w.removeComponent(child, cid)
}

// Children collects the live children of an entity, in archetype storage order. Links to
// despawned parents are skipped, matching Parent. The returned handles are the stored ones
// and may carry flag bits, so compare them with Equals rather than ==.
func (w *World) Children(parent Entity) []Entity {
	cid, err := w.components.getID(childOf{}.Name())
	if err != nil {
		return nil
	}

	var children []Entity
	for _, aid := range w.index.archetypesWith(cid) {
		arch := w.graph.get(aid)
		col := arch.column(cid)
		for row := 0; row < arch.entityCount(); row++ {
			link, ok := col.getAbstract(row).(childOf)
			if ok && link.Parent.Equals(parent) {
				children = append(children, arch.entities[row])
			}
		}
	}
	return children
}

// markRelationship sets the relationship flag on the entity's stored handle.
func (w *World) markRelationship(e Entity) {
	arch, row, err := w.locate(e)
	if err != nil {
		return
	}
	arch.setEntity(row, arch.entities[row].setFlag(FlagHasRelationships))
}
