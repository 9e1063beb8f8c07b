package filter

import "github.com/hive-engine/queen/ecs"

type and struct {
	filters []ComponentFilter
}

// And matches component sets satisfying every sub-filter.
func And(filters ...ComponentFilter) ComponentFilter {
	return &and{filters: filters}
}

func (f *and) MatchesComponents(components []ecs.Component) bool {
	for _, filter := range f.filters {
		if !filter.MatchesComponents(components) {
			return false
		}
	}
	return true
}
