package filter

import "github.com/hive-engine/queen/ecs"

type exact struct {
	components []ecs.Component
}

// Exact matches component sets identical to the components specified.
func Exact(components ...ComponentWrapper) ComponentFilter {
	return exact{components: unwrap(components)}
}

func (f exact) MatchesComponents(components []ecs.Component) bool {
	if len(components) != len(f.components) {
		return false
	}
	for _, have := range components {
		if !MatchComponent(f.components, have) {
			return false
		}
	}
	return true
}
