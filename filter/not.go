package filter

import "github.com/hive-engine/queen/ecs"

type not struct {
	filter ComponentFilter
}

// Not inverts a filter.
func Not(filter ComponentFilter) ComponentFilter {
	return &not{filter: filter}
}

func (f *not) MatchesComponents(components []ecs.Component) bool {
	return !f.filter.MatchesComponents(components)
}
