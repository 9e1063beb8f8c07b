package ecs

// ComponentInfo is the public registration record of a component type.
type ComponentInfo struct {
	ID   ComponentID
	Name string
}

// RegisteredComponents lists every registered component type in id order, internal types
// included.
func (w *World) RegisteredComponents() []ComponentInfo {
	out := make([]ComponentInfo, 0, w.components.count())
	for i := range w.components.metas {
		meta := &w.components.metas[i]
		out = append(out, ComponentInfo{ID: meta.id, Name: meta.name})
	}
	return out
}

// RegisteredSystems lists every registered system name in registration order.
func (w *World) RegisteredSystems() []string {
	out := make([]string, 0, w.systems.count())
	for _, sys := range w.systems.systems {
		out = append(out, sys.name)
	}
	return out
}

// ComponentZero returns the registered zero value of a component by name, for dynamic lookups
// such as query-language resolution.
func (w *World) ComponentZero(name string) (Component, error) {
	cid, err := w.components.getID(name)
	if err != nil {
		return nil, err
	}
	meta := w.components.meta(cid)
	zero, ok := newZeroComponent(meta)
	if !ok {
		return nil, ErrComponentNotFound
	}
	return zero, nil
}

// EachEntity iterates every live entity in slot index order. Return false to stop. Structural
// mutations during iteration are forbidden.
func (w *World) EachEntity(fn func(Entity) bool) {
	for index := range w.locations.records {
		rec := w.locations.records[index]
		if !rec.valid() {
			continue
		}
		if !fn(w.graph.get(rec.arch).entities[rec.row]) {
			return
		}
	}
}

// ComponentsOf returns the component values an entity currently carries.
func (w *World) ComponentsOf(e Entity) ([]Component, error) {
	arch, row, err := w.locate(e)
	if err != nil {
		return nil, err
	}
	out := make([]Component, 0, len(arch.columns))
	for _, col := range arch.columns {
		out = append(out, col.getAbstract(row))
	}
	return out, nil
}
