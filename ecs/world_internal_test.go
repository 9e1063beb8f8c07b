package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/hive-engine/queen/ecs/internal/testutils"
)

// newTestWorld creates a world with the standard test components registered.
func newTestWorld(t *testing.T, opts ...WorldOption) *World {
	t.Helper()
	w, err := NewWorld(opts...)
	require.NoError(t, err)

	_, err = RegisterComponent[Health](w)
	require.NoError(t, err)
	_, err = RegisterComponent[Position](w)
	require.NoError(t, err)
	_, err = RegisterComponent[Velocity](w)
	require.NoError(t, err)
	_, err = RegisterComponent[Experience](w)
	require.NoError(t, err)
	return w
}

func TestWorld_SpawnDespawn(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 100}, Position{X: 1, Y: 2})
	require.NoError(t, err)
	assert.True(t, w.Alive(e))
	assert.Equal(t, 1, w.EntityCount())

	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 100, health.Value)

	require.NoError(t, w.Despawn(e))
	assert.False(t, w.Alive(e))
	assert.Equal(t, 0, w.EntityCount())

	// Operations on the dead handle fail cleanly.
	err = w.Despawn(e)
	assert.ErrorIs(t, err, ErrEntityNotFound)
	_, err = Get[Health](w, e)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestWorld_StaleHandleAfterRecycle(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	first, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	require.NoError(t, w.Despawn(first))

	// The slot comes back with a bumped generation; the stale handle stays dead.
	second, err := w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)
	assert.Equal(t, first.Index(), second.Index())
	assert.NotEqual(t, first.Generation(), second.Generation())
	assert.False(t, w.Alive(first))
	assert.True(t, w.Alive(second))

	health, err := Get[Health](w, second)
	require.NoError(t, err)
	assert.Equal(t, 2, health.Value)
}

func TestWorld_AddRemoveComponent(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 10})
	require.NoError(t, err)
	assert.True(t, Has[Health](w, e))
	assert.False(t, Has[Position](w, e))

	require.NoError(t, Add(w, e, Position{X: 3, Y: 4}))
	assert.True(t, Has[Position](w, e))

	// The pre-existing component survives the archetype move with its value.
	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 10, health.Value)

	require.NoError(t, Remove[Position](w, e))
	assert.False(t, Has[Position](w, e))

	err = Remove[Position](w, e)
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestWorld_AddExistingOverwrites(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 10})
	require.NoError(t, err)
	before := w.ArchetypeCount()

	require.NoError(t, Add(w, e, Health{Value: 20}))
	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 20, health.Value)
	assert.Equal(t, before, w.ArchetypeCount(), "overwrite must not create archetypes")
}

func TestWorld_SetRequiresPresence(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 10})
	require.NoError(t, err)

	require.NoError(t, Set(w, e, Health{Value: 33}))
	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 33, health.Value)

	err = Set(w, e, Position{X: 1})
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestWorld_ArchetypePathIndependence(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	a, err := w.Spawn()
	require.NoError(t, err)
	require.NoError(t, Add(w, a, Health{Value: 1}))
	require.NoError(t, Add(w, a, Position{X: 1}))

	b, err := w.Spawn()
	require.NoError(t, err)
	require.NoError(t, Add(w, b, Position{X: 2}))
	require.NoError(t, Add(w, b, Health{Value: 2}))

	// Both transition paths must land in the identical archetype.
	recA, ok := w.locations.get(a.Index())
	require.True(t, ok)
	recB, ok := w.locations.get(b.Index())
	require.True(t, ok)
	assert.Equal(t, recA.arch, recB.arch)
}

func TestWorld_SwapRemoveFixesLocations(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	first, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	second, err := w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)
	third, err := w.SpawnWith(Health{Value: 3})
	require.NoError(t, err)

	// Despawning the first row swaps the last entity into it.
	require.NoError(t, w.Despawn(first))

	h2, err := Get[Health](w, second)
	require.NoError(t, err)
	assert.Equal(t, 2, h2.Value)
	h3, err := Get[Health](w, third)
	require.NoError(t, err)
	assert.Equal(t, 3, h3.Value)
}

func TestWorld_DropHookRunsExactlyOnce(t *testing.T) {
	t.Parallel()
	w, err := NewWorld()
	require.NoError(t, err)

	drops := make(map[int]int)
	_, err = RegisterComponent[Health](w, WithDrop(func(h Health) {
		drops[h.Value]++
	}))
	require.NoError(t, err)
	_, err = RegisterComponent[Position](w)
	require.NoError(t, err)

	// Despawn drops the value once.
	e1, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	require.NoError(t, w.Despawn(e1))
	assert.Equal(t, 1, drops[1])

	// An archetype move must not drop a value that was transferred.
	e2, err := w.SpawnWith(Health{Value: 2})
	require.NoError(t, err)
	require.NoError(t, Add(w, e2, Position{X: 1}))
	assert.Zero(t, drops[2])

	// Removing the component drops it once, even though the entity lives on.
	require.NoError(t, Remove[Health](w, e2))
	assert.Equal(t, 1, drops[2])
	require.NoError(t, w.Despawn(e2))
	assert.Equal(t, 1, drops[2])
}

func TestWorld_ConstructHookSeedsDefaults(t *testing.T) {
	t.Parallel()
	w, err := NewWorld()
	require.NoError(t, err)

	_, err = RegisterComponent[Health](w, WithConstruct(func() Health {
		return Health{Value: 50}
	}))
	require.NoError(t, err)
	_, err = RegisterComponent[Position](w)
	require.NoError(t, err)

	e, err := w.SpawnWith(Position{X: 1})
	require.NoError(t, err)

	require.NoError(t, AddDefault[Health](w, e))
	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 50, health.Value, "default add uses the construct hook")

	// Adding an already-present component by default is a no-op.
	require.NoError(t, Set(w, e, Health{Value: 8}))
	require.NoError(t, AddDefault[Health](w, e))
	health, err = Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 8, health.Value)
}

func TestWorld_CloneCopiesValues(t *testing.T) {
	t.Parallel()
	w, err := NewWorld()
	require.NoError(t, err)

	cloned := 0
	_, err = RegisterComponent[Health](w, WithClone(func(h Health) Health {
		cloned++
		return Health{Value: h.Value + 1000}
	}))
	require.NoError(t, err)
	_, err = RegisterComponent[Position](w)
	require.NoError(t, err)

	e, err := w.SpawnWith(Health{Value: 5}, Position{X: 9, Y: 9})
	require.NoError(t, err)

	dup, err := w.Clone(e)
	require.NoError(t, err)
	assert.True(t, w.Alive(dup))
	assert.Equal(t, 1, cloned)

	copiedHealth, err := Get[Health](w, dup)
	require.NoError(t, err)
	assert.Equal(t, 1005, copiedHealth.Value, "clone hook output is stored")

	copiedPos, err := Get[Position](w, dup)
	require.NoError(t, err)
	assert.Equal(t, 9, copiedPos.X, "hook-less types copy by assignment")

	// The original is untouched.
	original, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 5, original.Value)
}

func TestWorld_EnableDisable(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	assert.True(t, w.Enabled(e))

	require.NoError(t, w.Disable(e))
	assert.False(t, w.Enabled(e))
	assert.True(t, w.Alive(e), "disabled is not dead")

	// Components stay readable while disabled.
	health, err := Get[Health](w, e)
	require.NoError(t, err)
	assert.Equal(t, 1, health.Value)

	require.NoError(t, w.Enable(e))
	assert.True(t, w.Enabled(e))
}

func TestWorld_DisabledSurvivesArchetypeMove(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	e, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	require.NoError(t, w.Disable(e))
	require.NoError(t, Add(w, e, Position{X: 1}))
	assert.False(t, w.Enabled(e), "disabled flag travels with the stored handle")
}

func TestWorld_Clear(t *testing.T) {
	t.Parallel()
	w, err := NewWorld()
	require.NoError(t, err)

	drops := 0
	_, err = RegisterComponent[Health](w, WithDrop(func(Health) { drops++ }))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := w.SpawnWith(Health{Value: i})
		require.NoError(t, err)
	}
	w.Clear()

	assert.Equal(t, 0, w.EntityCount())
	assert.Equal(t, 5, drops, "clear drops every stored value")

	// The world stays usable after a clear.
	e, err := w.SpawnWith(Health{Value: 1})
	require.NoError(t, err)
	assert.True(t, w.Alive(e))
}

func TestWorld_ResourceLifecycle(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	type gravity struct{ Value float64 }

	assert.False(t, HasResource[gravity](w))
	_, err := Resource[gravity](w)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	InsertResource(w, gravity{Value: 9.81})
	assert.True(t, HasResource[gravity](w))

	g, err := Resource[gravity](w)
	require.NoError(t, err)
	assert.InDelta(t, 9.81, g.Value, 1e-9)

	// Replacement and removal.
	InsertResource(w, gravity{Value: 1.62})
	g, err = Resource[gravity](w)
	require.NoError(t, err)
	assert.InDelta(t, 1.62, g.Value, 1e-9)

	assert.True(t, RemoveResource[gravity](w))
	assert.False(t, RemoveResource[gravity](w))
	assert.False(t, HasResource[gravity](w))
}

func TestWorld_RegisterComponentIdempotent(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	first, err := RegisterComponent[Health](w)
	require.NoError(t, err)
	second, err := RegisterComponent[Health](w)
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-registration returns the existing id")
}
