package filter

import "github.com/hive-engine/queen/ecs"

// MatchComponent returns true if the given slice of components contains the given component.
// Components are the same if they have the same Name.
func MatchComponent(components []ecs.Component, want ecs.Component) bool {
	for _, c := range components {
		if want.Name() == c.Name() {
			return true
		}
	}
	return false
}
