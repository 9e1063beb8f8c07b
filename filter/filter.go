package filter

import "github.com/hive-engine/queen/ecs"

// ComponentFilter is a composable predicate over an entity's component set. Filters match
// against the list of component values an entity (or archetype row) carries.
type ComponentFilter interface {
	// MatchesComponents returns true if the component set satisfies the filter.
	MatchesComponents(components []ecs.Component) bool
}

// ComponentWrapper wraps a zero value of a component type for filtering purposes.
type ComponentWrapper struct {
	Component ecs.Component
}

// Component returns a ComponentWrapper for the given component type T.
func Component[T ecs.Component]() ComponentWrapper {
	var x T
	return ComponentWrapper{Component: x}
}

// unwrap flattens a list of wrappers into plain components.
func unwrap(wrappers []ComponentWrapper) []ecs.Component {
	out := make([]ecs.Component, len(wrappers))
	for i, w := range wrappers {
		out[i] = w.Component
	}
	return out
}
