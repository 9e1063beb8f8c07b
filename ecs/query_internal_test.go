package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/hive-engine/queen/ecs/internal/testutils"
)

func collectEntities(t *testing.T, w *World, q *QueryDescriptor, lastRun Tick) []Entity {
	t.Helper()
	var out []Entity
	q.Each(w, lastRun, func(r Row) bool {
		out = append(out, r.Entity)
		return true
	})
	return out
}

func TestQuery_RequiredAndExcluded(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	both, err := w.SpawnWith(Health{Value: 1}, Position{X: 1})
	require.NoError(t, err)
	healthOnly, err := w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)
	_, err = w.SpawnWith(Position{X: 3})
	require.NoError(t, err)

	q, err := NewQuery(w, Read[Health]())
	require.NoError(t, err)
	assert.ElementsMatch(t, []Entity{both, healthOnly}, collectEntities(t, w, q, 0))

	withPos, err := NewQuery(w, Read[Health](), With[Position]())
	require.NoError(t, err)
	assert.Equal(t, []Entity{both}, collectEntities(t, w, withPos, 0))

	withoutPos, err := NewQuery(w, Read[Health](), Without[Position]())
	require.NoError(t, err)
	assert.Equal(t, []Entity{healthOnly}, collectEntities(t, w, withoutPos, 0))
}

func TestQuery_UnknownComponent(t *testing.T) {
	t.Parallel()
	w, err := NewWorld()
	require.NoError(t, err)

	_, err = NewQuery(w, Read[Health]())
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestQuery_ChangeFilterOnPresenceTerm(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	_, err := NewQuery(w, With[Health]().Added())
	assert.Error(t, err)
}

func TestQuery_ReadAndMut(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 10}, Position{X: 1, Y: 2})
	require.NoError(t, err)

	q, err := NewQuery(w, Write[Health](), Read[Position]())
	require.NoError(t, err)

	q.Each(w, 0, func(r Row) bool {
		pos, ok := GetRow[Position](r)
		require.True(t, ok)
		mut, ok := MutRow[Health](r)
		require.True(t, ok)
		mut.Get().Value += pos.X
		return true
	})

	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 11, health.Value)
}

func TestQuery_OptionalTerm(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	withVel, err := w.SpawnWith(Position{X: 1}, Velocity{X: 5})
	require.NoError(t, err)
	withoutVel, err := w.SpawnWith(Position{X: 2})
	require.NoError(t, err)

	q, err := NewQuery(w, Read[Position](), Optional[Velocity]())
	require.NoError(t, err)

	seen := make(map[Entity]bool)
	q.Each(w, 0, func(r Row) bool {
		_, hasVel := GetRow[Velocity](r)
		seen[r.Entity] = hasVel
		return true
	})
	assert.Len(t, seen, 2)
	assert.True(t, seen[withVel])
	assert.False(t, seen[withoutVel])
}

func TestQuery_AddedFilter(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	old, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	spawnTick := w.CurrentTick()
	require.NoError(t, w.Tick())

	fresh, err := w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)

	q, err := NewQuery(w, Read[Health]().Added())
	require.NoError(t, err)

	// lastRun 0 predates both spawns.
	assert.ElementsMatch(t, []Entity{old, fresh}, collectEntities(t, w, q, 0))
	// lastRun at the first spawn's tick only sees the later one.
	assert.Equal(t, []Entity{fresh}, collectEntities(t, w, q, spawnTick))
}

func TestQuery_ChangedFilter(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	touched, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	_, err = w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)

	spawnTick := w.CurrentTick()
	require.NoError(t, w.Tick())
	require.NoError(t, Set(w, touched, Health{Value: 99}))

	q, err := NewQuery(w, Read[Health]().Changed())
	require.NoError(t, err)
	assert.Equal(t, []Entity{touched}, collectEntities(t, w, q, spawnTick))
}

func TestQuery_MutDeferredChangeStamp(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	spawnTick := w.CurrentTick()
	require.NoError(t, w.Tick())

	q, err := NewQuery(w, Write[Health]())
	require.NoError(t, err)

	// Taking the handle without dereferencing leaves the ticks alone.
	q.Each(w, spawnTick, func(r Row) bool {
		_, ok := MutRow[Health](r)
		require.True(t, ok)
		return true
	})
	changed, err := NewQuery(w, Read[Health]().Changed())
	require.NoError(t, err)
	assert.Empty(t, collectEntities(t, w, changed, spawnTick))

	// Dereferencing stamps the change.
	mut, err := GetMut[Health](w, e)
	require.NoError(t, err)
	mut.Get().Value = 2
	assert.Equal(t, []Entity{e}, collectEntities(t, w, changed, spawnTick))
}

func TestQuery_SkipsDisabled(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	enabled, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	disabled, err := w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)
	require.NoError(t, w.Disable(disabled))

	q, err := NewQuery(w, Read[Health]())
	require.NoError(t, err)
	assert.Equal(t, []Entity{enabled}, collectEntities(t, w, q, 0))

	require.NoError(t, w.Enable(disabled))
	assert.Len(t, collectEntities(t, w, q, 0), 2)
}

func TestQuery_IncrementalCacheSeesNewArchetypes(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	first, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)

	q, err := NewQuery(w, Read[Health]())
	require.NoError(t, err)
	assert.Equal(t, []Entity{first}, collectEntities(t, w, q, 0))

	// A new archetype containing Health appears after the first evaluation.
	second, err := w.SpawnWith(Health{Value: 2}, Position{X: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Entity{first, second}, collectEntities(t, w, q, 0))

	// And one that doesn't match stays invisible.
	_, err = w.SpawnWith(Position{X: 9})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Entity{first, second}, collectEntities(t, w, q, 0))
}

func TestQuery_CountAndFirst(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	q, err := NewQuery(w, Read[Health]())
	require.NoError(t, err)

	_, ok := q.First(w, 0)
	assert.False(t, ok)
	assert.Zero(t, q.Count(w, 0))

	e, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	_, err = w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, q.Count(w, 0))
	got, ok := q.First(w, 0)
	assert.True(t, ok)
	assert.Equal(t, e, got)
}

func TestQuery_EarlyStop(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	for i := 0; i < 10; i++ {
		_, err := w.SpawnWith(Health{Value: i})
		require.NoError(t, err)
	}

	q, err := NewQuery(w, Read[Health]())
	require.NoError(t, err)

	visited := 0
	q.Each(w, 0, func(Row) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)
}

func TestQuery_AccessFootprint(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	reads, err := NewQuery(w, Read[Health]())
	require.NoError(t, err)
	writes, err := NewQuery(w, Write[Health]())
	require.NoError(t, err)
	disjoint, err := NewQuery(w, Read[Position]())
	require.NoError(t, err)

	assert.False(t, reads.Access().ConflictsWith(reads.Access()), "two readers coexist")
	assert.True(t, writes.Access().ConflictsWith(reads.Access()))
	assert.False(t, writes.Access().ConflictsWith(disjoint.Access()))
}
