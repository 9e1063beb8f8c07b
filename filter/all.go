package filter

import "github.com/hive-engine/queen/ecs"

type all struct{}

// All matches every component set.
func All() ComponentFilter {
	return &all{}
}

func (f *all) MatchesComponents(_ []ecs.Component) bool {
	return true
}
