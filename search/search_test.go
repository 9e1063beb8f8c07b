package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-engine/queen/ecs"
	"github.com/hive-engine/queen/filter"
	"github.com/hive-engine/queen/search"
)

type health struct{ Value int }

func (health) Name() string { return "Health" }

type position struct{ X, Y int }

func (position) Name() string { return "Position" }

func newTestWorld(t *testing.T) (*ecs.World, []ecs.Entity) {
	t.Helper()
	w, err := ecs.NewWorld()
	require.NoError(t, err)

	_, err = ecs.RegisterComponent[health](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[position](w)
	require.NoError(t, err)

	entities := make([]ecs.Entity, 0, 3)
	for _, spec := range []struct {
		health   int
		position bool
	}{
		{health: 10, position: true},
		{health: 80, position: true},
		{health: 50, position: false},
	} {
		components := []ecs.Component{health{Value: spec.health}}
		if spec.position {
			components = append(components, position{X: 1})
		}
		e, err := w.SpawnWith(components...)
		require.NoError(t, err)
		entities = append(entities, e)
	}
	return w, entities
}

func TestSearch_MatchFilter(t *testing.T) {
	t.Parallel()
	w, entities := newTestWorld(t)

	got, err := search.New(w).
		Match(filter.Contains(filter.Component[position]())).
		Collect()
	require.NoError(t, err)
	assert.ElementsMatch(t, entities[:2], got)
}

func TestSearch_CQL(t *testing.T) {
	t.Parallel()
	w, entities := newTestWorld(t)

	got, err := search.New(w).CQL("CONTAINS(Health) & !CONTAINS(Position)").Collect()
	require.NoError(t, err)
	assert.Equal(t, []ecs.Entity{entities[2]}, got)

	_, err = search.New(w).CQL("CONTAINS(Unknown)").Collect()
	assert.Error(t, err)
}

func TestSearch_Where(t *testing.T) {
	t.Parallel()
	w, entities := newTestWorld(t)

	got, err := search.New(w).Where("Health.Value > 40").Collect()
	require.NoError(t, err)
	assert.ElementsMatch(t, entities[1:], got)

	count, err := search.New(w).
		Match(filter.Contains(filter.Component[position]())).
		Where("Health.Value < 50").
		Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = search.New(w).Where("Health.Value >").Collect()
	assert.Error(t, err, "compile errors surface at consumption")
}

func TestSearch_First(t *testing.T) {
	t.Parallel()
	w, entities := newTestWorld(t)

	first, err := search.New(w).Where("Health.Value == 80").First()
	require.NoError(t, err)
	assert.Equal(t, entities[1], first)

	_, err = search.New(w).Where("Health.Value > 1000").First()
	assert.ErrorIs(t, err, ecs.ErrEntityNotFound)
}

func TestSearch_DefaultMatchesEverything(t *testing.T) {
	t.Parallel()
	w, entities := newTestWorld(t)

	count, err := search.New(w).Count()
	require.NoError(t, err)
	assert.Equal(t, len(entities), count)
}
