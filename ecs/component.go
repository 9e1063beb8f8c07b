package ecs

import (
	"math"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"github.com/hive-engine/queen/assert"
)

// Component is the interface that all components must implement. Components are pure data
// containers that can be attached to entities.
type Component interface {
	// Name returns a unique string identifier for the component type.
	// This should be consistent across program executions.
	Name() string
}

// ComponentID is a unique identifier for a component type.
// It is used internally to track and manage component types efficiently.
type ComponentID = uint32

// MaxComponentID is the maximum number of component types that can be registered.
const MaxComponentID = math.MaxUint32 - 1

// componentMeta is the per-type record built once at registration: identity, reflection info,
// the column factory (construct) and the optional lifecycle hooks. It is immutable after
// registration.
type componentMeta struct {
	id      ComponentID
	name    string
	typ     reflect.Type
	factory columnFactory
	schema  []byte

	// Lifecycle hooks, nil when the type needs none. drop runs when a value is discarded,
	// clone when a value is duplicated into another entity.
	drop  func(Component)
	clone func(Component) Component

	// internal components (entity hierarchy bookkeeping) are skipped by the JSON world dump.
	internal bool
}

// componentManager manages component type registration and lookup.
type componentManager struct {
	nextID  ComponentID
	catalog map[string]ComponentID // Component name -> component ID
	metas   []componentMeta        // Component ID -> metadata
}

func newComponentManager() componentManager {
	return componentManager{
		nextID:  0,
		catalog: make(map[string]ComponentID),
		metas:   make([]componentMeta, 0),
	}
}

// register registers a new component type and returns its ID. Registering the same name twice
// is a no-op returning the existing ID, provided the JSON schema of the type is unchanged;
// a schema mismatch is an error since the stored columns would no longer round-trip.
func (cm *componentManager) register(meta componentMeta) (ComponentID, error) {
	if meta.name == "" {
		return 0, eris.New("component name cannot be empty")
	}

	if cid, exists := cm.catalog[meta.name]; exists {
		same, err := schemasMatch(cm.metas[cid].schema, meta.schema)
		if err != nil {
			return 0, eris.Wrapf(err, "failed to compare schema of component %s", meta.name)
		}
		if !same {
			return 0, eris.Errorf("component %s is already registered with a different schema", meta.name)
		}
		return cid, nil
	}

	if cm.nextID > MaxComponentID {
		return 0, eris.New("max number of components exceeded")
	}

	meta.id = cm.nextID
	cm.catalog[meta.name] = cm.nextID
	cm.metas = append(cm.metas, meta)
	cm.nextID++
	assert.That(int(cm.nextID) == len(cm.metas), "component id doesn't match number of components")

	return cm.nextID - 1, nil
}

// getID returns a component's ID given a name.
func (cm *componentManager) getID(name string) (ComponentID, error) {
	id, exists := cm.catalog[name]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotFound, "component %s", name)
	}
	return id, nil
}

// meta returns the metadata record for a component ID.
func (cm *componentManager) meta(cid ComponentID) *componentMeta {
	assert.That(int(cid) < len(cm.metas), "component id %d not registered", cid)
	return &cm.metas[cid]
}

// count returns the number of registered component types.
func (cm *componentManager) count() int {
	return len(cm.metas)
}

// newZeroComponent builds a fresh zero value of a registered component type through reflection.
func newZeroComponent(meta *componentMeta) (Component, bool) {
	value, ok := reflect.New(meta.typ).Elem().Interface().(Component)
	return value, ok
}

// serializeSchema reflects the JSON schema of a component type. Components must be JSON
// serializable; the schema doubles as the registration compatibility check and as reflection
// metadata for the world dump.
func serializeSchema(component Component) ([]byte, error) {
	schema, err := jsonschema.Reflect(component).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "component must be json serializable")
	}
	return schema, nil
}

// schemasMatch returns true if two JSON schemas are structurally identical.
func schemasMatch(a, b []byte) (bool, error) {
	patch, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return false, eris.Wrap(err, "")
	}
	return patch.String() == "", nil
}
