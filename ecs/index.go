package ecs

// componentIndex is the inverted index from component type to the archetypes containing it.
// Queries resolve their most selective required term through it instead of scanning every
// archetype. The empty archetype is never indexed since it contains no components.
type componentIndex struct {
	buckets map[ComponentID][]ArchetypeID
}

func newComponentIndex() componentIndex {
	return componentIndex{
		buckets: make(map[ComponentID][]ArchetypeID),
	}
}

// registerArchetype appends the archetype to the bucket of every component type it contains.
// Called exactly once per archetype, when the graph creates it.
func (ci *componentIndex) registerArchetype(a *archetype) {
	a.mask.Range(func(cid uint32) {
		ci.buckets[cid] = append(ci.buckets[cid], a.id)
	})
}

// archetypesWith returns the bucket for one component type. The returned slice is owned by the
// index and must not be mutated.
func (ci *componentIndex) archetypesWith(cid ComponentID) []ArchetypeID {
	return ci.buckets[cid]
}

// smallestBucket returns the smallest candidate bucket among the given component types, which
// bounds query resolution work by the most selective term. Returns false when ids is empty or
// any id has an empty bucket (no archetype can match then).
func (ci *componentIndex) smallestBucket(ids []ComponentID) ([]ArchetypeID, bool) {
	if len(ids) == 0 {
		return nil, false
	}

	var smallest []ArchetypeID
	for i, cid := range ids {
		bucket := ci.buckets[cid]
		if len(bucket) == 0 {
			return nil, false
		}
		if i == 0 || len(bucket) < len(smallest) {
			smallest = bucket
		}
	}
	return smallest, true
}
