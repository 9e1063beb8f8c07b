package ecs

import "github.com/hive-engine/queen/assert"

// TriggerType is the kind of component mutation an observer fires on.
type TriggerType uint8

const (
	// TriggerAdd fires after a component is attached to an entity.
	TriggerAdd TriggerType = iota
	// TriggerRemove fires before a component is detached (the value is still readable).
	TriggerRemove
	// TriggerSet fires after a component value is overwritten through the world API.
	TriggerSet
)

// ObserverFn reacts to a component mutation on an entity. Observers run synchronously inside
// the mutating operation, on the mutating goroutine; they may read the world but must defer
// structural changes through a command buffer.
type ObserverFn func(w *World, e Entity, c Component)

// observerKey identifies one trigger point.
type observerKey struct {
	trigger TriggerType
	cid     ComponentID
}

// observerRegistry stores observers per (trigger, component) pair in registration order.
type observerRegistry struct {
	observers map[observerKey][]ObserverFn
}

func newObserverRegistry() observerRegistry {
	return observerRegistry{observers: make(map[observerKey][]ObserverFn)}
}

func (or *observerRegistry) register(trigger TriggerType, cid ComponentID, fn ObserverFn) {
	assert.That(fn != nil, "nil observer")
	key := observerKey{trigger: trigger, cid: cid}
	or.observers[key] = append(or.observers[key], fn)
}

// fire invokes the observers of one trigger point in registration order.
func (or *observerRegistry) fire(w *World, trigger TriggerType, cid ComponentID, e Entity, c Component) {
	for _, fn := range or.observers[observerKey{trigger: trigger, cid: cid}] {
		fn(w, e, c)
	}
}

// Observe registers a typed observer for component T on the given trigger. Registration order
// is invocation order.
func Observe[T Component](w *World, trigger TriggerType, fn func(w *World, e Entity, c T)) error {
	var zero T
	cid, err := w.components.getID(zero.Name())
	if err != nil {
		return err
	}
	w.observers.register(trigger, cid, func(w *World, e Entity, c Component) {
		concrete, ok := c.(T)
		assert.That(ok, "observer received wrong component type for %s", zero.Name())
		fn(w, e, concrete)
	})
	return nil
}
