package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/assert"
)

// registerOptions carries the optional lifecycle hooks of a component type.
type registerOptions[T Component] struct {
	construct func() T
	drop      func(T)
	clone     func(T) T
}

// RegisterOption configures the registration of a component type.
type RegisterOption[T Component] func(*registerOptions[T])

// WithConstruct sets the default constructor used when a component is added without an explicit
// value (entity spawn into an archetype, deferred adds). Without it the zero value is used.
func WithConstruct[T Component](fn func() T) RegisterOption[T] {
	return func(o *registerOptions[T]) {
		o.construct = fn
	}
}

// WithDrop sets a destruct hook that runs exactly once on every component value discarded from
// storage (despawn, component removal, world reset).
func WithDrop[T Component](fn func(T)) RegisterOption[T] {
	return func(o *registerOptions[T]) {
		o.drop = fn
	}
}

// WithClone sets a copy hook used when a component value is duplicated onto another entity.
// Without it values are copied by plain assignment.
func WithClone[T Component](fn func(T) T) RegisterOption[T] {
	return func(o *registerOptions[T]) {
		o.clone = fn
	}
}

// RegisterComponent registers component type T with the world and returns its ID. Registration
// is idempotent as long as the type's JSON schema is unchanged. Must be called before the type
// appears in any query or entity operation.
func RegisterComponent[T Component](w *World, opts ...RegisterOption[T]) (ComponentID, error) {
	var options registerOptions[T]
	for _, opt := range opts {
		opt(&options)
	}
	return registerComponent(w, options, false)
}

// registerComponent does the actual registration; internal marks hierarchy bookkeeping types
// that the JSON world dump skips.
func registerComponent[T Component](w *World, options registerOptions[T], internal bool) (ComponentID, error) {
	var zero T
	name := zero.Name()

	schema, err := serializeSchema(zero)
	if err != nil {
		return 0, eris.Wrapf(err, "failed to register component %s", name)
	}

	meta := componentMeta{
		name:     name,
		typ:      reflect.TypeOf(zero),
		factory:  newColumnFactory(options),
		schema:   schema,
		internal: internal,
	}
	if options.drop != nil {
		drop := options.drop
		meta.drop = func(c Component) {
			concrete, ok := c.(T)
			assert.That(ok, "drop hook received wrong component type for %s", name)
			drop(concrete)
		}
	}
	if options.clone != nil {
		clone := options.clone
		meta.clone = func(c Component) Component {
			concrete, ok := c.(T)
			assert.That(ok, "clone hook received wrong component type for %s", name)
			return clone(concrete)
		}
	}

	cid, err := w.components.register(meta)
	if err != nil {
		return 0, err
	}
	w.logger.Debug().Str("component", name).Uint32("id", cid).Msg("registered component")
	return cid, nil
}

// getColumn resolves the typed column of component T in an archetype. Returns nil when the
// archetype lacks the component.
func getColumn[T Component](w *World, arch *archetype) *column[T] {
	var zero T
	cid, err := w.components.getID(zero.Name())
	if err != nil {
		return nil
	}
	col := arch.column(cid)
	if col == nil {
		return nil
	}
	concrete, ok := col.(*column[T])
	assert.That(ok, "column type mismatch for component %s", zero.Name())
	return concrete
}
