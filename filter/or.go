package filter

import "github.com/hive-engine/queen/ecs"

type or struct {
	filters []ComponentFilter
}

// Or matches component sets satisfying at least one sub-filter.
func Or(filters ...ComponentFilter) ComponentFilter {
	return &or{filters: filters}
}

func (f *or) MatchesComponents(components []ecs.Component) bool {
	for _, filter := range f.filters {
		if filter.MatchesComponents(components) {
			return true
		}
	}
	return false
}
