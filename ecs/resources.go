package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

// resourceManager stores world-global singletons keyed by Go type. Each type also gets a dense
// id so access descriptors can track resource reads and writes in bitmaps.
type resourceManager struct {
	ids    map[reflect.Type]uint32
	values map[reflect.Type]any
	nextID uint32
}

func newResourceManager() resourceManager {
	return resourceManager{
		ids:    make(map[reflect.Type]uint32),
		values: make(map[reflect.Type]any),
	}
}

// idFor returns the dense id of a resource type, assigning one on first sight. Ids are stable
// for the lifetime of the world, even across remove/insert cycles.
func (rm *resourceManager) idFor(t reflect.Type) uint32 {
	if id, ok := rm.ids[t]; ok {
		return id
	}
	id := rm.nextID
	rm.ids[t] = id
	rm.nextID++
	return id
}

func (rm *resourceManager) insert(t reflect.Type, value any) {
	rm.idFor(t)
	rm.values[t] = value
}

func (rm *resourceManager) get(t reflect.Type) (any, bool) {
	v, ok := rm.values[t]
	return v, ok
}

func (rm *resourceManager) remove(t reflect.Type) bool {
	if _, ok := rm.values[t]; !ok {
		return false
	}
	delete(rm.values, t)
	return true
}

// InsertResource stores a world-global singleton of type T, replacing any previous value.
func InsertResource[T any](w *World, value T) {
	w.resources.insert(reflect.TypeOf(value), value)
}

// Resource returns the resource of type T.
func Resource[T any](w *World) (T, error) {
	var zero T
	v, ok := w.resources.get(reflect.TypeOf(zero))
	if !ok {
		return zero, eris.Wrapf(ErrResourceNotFound, "resource %T", zero)
	}
	return v.(T), nil
}

// HasResource reports whether a resource of type T is present.
func HasResource[T any](w *World) bool {
	var zero T
	_, ok := w.resources.get(reflect.TypeOf(zero))
	return ok
}

// RemoveResource deletes the resource of type T. Returns false if absent.
func RemoveResource[T any](w *World) bool {
	var zero T
	return w.resources.remove(reflect.TypeOf(zero))
}

// ResourceID returns the dense access-tracking id of resource type T, for building access
// descriptors by hand.
func ResourceID[T any](w *World) uint32 {
	var zero T
	return w.resources.idFor(reflect.TypeOf(zero))
}
