package filter

import "github.com/hive-engine/queen/ecs"

type contains struct {
	components []ecs.Component
}

// Contains matches component sets that contain all the components specified.
func Contains(components ...ComponentWrapper) ComponentFilter {
	return &contains{components: unwrap(components)}
}

func (f *contains) MatchesComponents(components []ecs.Component) bool {
	for _, want := range f.components {
		if !MatchComponent(components, want) {
			return false
		}
	}
	return true
}
