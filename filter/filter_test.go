package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hive-engine/queen/ecs"
	"github.com/hive-engine/queen/filter"
)

type health struct{ Value int }

func (health) Name() string { return "Health" }

type position struct{ X, Y int }

func (position) Name() string { return "Position" }

type velocity struct{ X, Y int }

func (velocity) Name() string { return "Velocity" }

func set(components ...ecs.Component) []ecs.Component {
	return components
}

func TestFilter_All(t *testing.T) {
	t.Parallel()

	assert.True(t, filter.All().MatchesComponents(nil))
	assert.True(t, filter.All().MatchesComponents(set(health{})))
}

func TestFilter_Contains(t *testing.T) {
	t.Parallel()

	f := filter.Contains(filter.Component[health](), filter.Component[position]())
	assert.True(t, f.MatchesComponents(set(health{}, position{}, velocity{})))
	assert.True(t, f.MatchesComponents(set(position{}, health{})))
	assert.False(t, f.MatchesComponents(set(health{})))
	assert.False(t, f.MatchesComponents(nil))
}

func TestFilter_Exact(t *testing.T) {
	t.Parallel()

	f := filter.Exact(filter.Component[health](), filter.Component[position]())
	assert.True(t, f.MatchesComponents(set(health{}, position{})))
	assert.True(t, f.MatchesComponents(set(position{}, health{})))
	assert.False(t, f.MatchesComponents(set(health{}, position{}, velocity{})))
	assert.False(t, f.MatchesComponents(set(health{})))
}

func TestFilter_Composition(t *testing.T) {
	t.Parallel()

	hasHealth := filter.Contains(filter.Component[health]())
	hasVelocity := filter.Contains(filter.Component[velocity]())

	and := filter.And(hasHealth, filter.Not(hasVelocity))
	assert.True(t, and.MatchesComponents(set(health{}, position{})))
	assert.False(t, and.MatchesComponents(set(health{}, velocity{})))

	or := filter.Or(hasHealth, hasVelocity)
	assert.True(t, or.MatchesComponents(set(velocity{})))
	assert.True(t, or.MatchesComponents(set(health{})))
	assert.False(t, or.MatchesComponents(set(position{})))
}
