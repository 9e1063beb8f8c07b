package ecs

// Tick is a frame-scoped monotonic counter used to timestamp component mutations for change
// detection. Comparisons go through signed subtraction so the counter survives uint32
// wraparound, as long as no two compared ticks are more than 2^31 apart.
type Tick uint32

// IsNewerThan returns true if t was issued after other, tolerating wraparound.
func (t Tick) IsNewerThan(other Tick) bool {
	return int32(uint32(t)-uint32(other)) > 0
}

// ComponentTicks records when a component slot was inserted and last mutated. One pair is
// stored per row, parallel to the column data.
type ComponentTicks struct {
	Added   Tick
	Changed Tick
}

func newComponentTicks(now Tick) ComponentTicks {
	return ComponentTicks{Added: now, Changed: now}
}

// WasAdded returns true if the component was inserted after the given tick.
func (ct ComponentTicks) WasAdded(lastRun Tick) bool {
	return ct.Added.IsNewerThan(lastRun)
}

// WasChanged returns true if the component was mutated after the given tick. Insertion counts
// as a change.
func (ct ComponentTicks) WasChanged(lastRun Tick) bool {
	return ct.Changed.IsNewerThan(lastRun)
}
