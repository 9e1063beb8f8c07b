package ecs

import (
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/assert"
)

// TermKind classifies a query term.
type TermKind uint8

const (
	// TermRead requests read access to a component's data.
	TermRead TermKind = iota
	// TermWrite requests write access to a component's data.
	TermWrite
	// TermWith requires the component's presence without accessing its data.
	TermWith
	// TermWithout excludes archetypes containing the component.
	TermWithout
	// TermOptional requests read access when the component is present.
	TermOptional
)

// Term is one access term of a query, built through Read/Write/With/Without/Optional and
// resolved against the component registry when the query is compiled.
type Term struct {
	kind      TermKind
	component string
	added     bool
	changed   bool
}

// Read requests read access to component T. Counts as a required term.
func Read[T Component]() Term {
	var zero T
	return Term{kind: TermRead, component: zero.Name()}
}

// Write requests write access to component T. Counts as a required term.
func Write[T Component]() Term {
	var zero T
	return Term{kind: TermWrite, component: zero.Name()}
}

// With requires component T to be present without accessing its data.
func With[T Component]() Term {
	var zero T
	return Term{kind: TermWith, component: zero.Name()}
}

// Without excludes entities that have component T.
func Without[T Component]() Term {
	var zero T
	return Term{kind: TermWithout, component: zero.Name()}
}

// Optional requests access to component T when present; archetypes lacking T still match.
func Optional[T Component]() Term {
	var zero T
	return Term{kind: TermOptional, component: zero.Name()}
}

// Added narrows a data term to rows whose component was inserted since the system's last run.
func (t Term) Added() Term {
	t.added = true
	return t
}

// Changed narrows a data term to rows whose component was mutated since the system's last run.
func (t Term) Changed() Term {
	t.changed = true
	return t
}

// queryTerm is a compiled data term.
type queryTerm struct {
	kind    TermKind
	cid     ComponentID
	added   bool
	changed bool
}

// QueryDescriptor is a compiled query: required/excluded/optional component sets plus the list
// of data terms, with an incremental cache of matching archetypes. Queries are resolved through
// the component index by their most selective required term, so a query must carry at least one
// required term to match anything.
type QueryDescriptor struct {
	terms       []queryTerm
	required    bitmap.Bitmap
	excluded    bitmap.Bitmap
	optional    bitmap.Bitmap
	requiredIDs []ComponentID
	access      AccessDescriptor

	// Incremental archetype-match cache: archetypes are never destroyed, so only the arena
	// tail since the last evaluation needs rescanning.
	matches []ArchetypeID
	seen    int
}

// NewQuery compiles a set of terms against the world's component registry.
func NewQuery(w *World, terms ...Term) (*QueryDescriptor, error) {
	q := &QueryDescriptor{}

	for _, term := range terms {
		cid, err := w.components.getID(term.component)
		if err != nil {
			return nil, eris.Wrapf(err, "query term references unknown component %s", term.component)
		}

		if (term.added || term.changed) && (term.kind == TermWith || term.kind == TermWithout) {
			return nil, eris.Errorf("change filter on component %s requires a data term", term.component)
		}

		switch term.kind {
		case TermRead:
			q.required.Set(cid)
			q.access.ReadsComponent(cid)
			q.terms = append(q.terms, queryTerm{kind: term.kind, cid: cid, added: term.added, changed: term.changed})
		case TermWrite:
			q.required.Set(cid)
			q.access.WritesComponent(cid)
			q.terms = append(q.terms, queryTerm{kind: term.kind, cid: cid, added: term.added, changed: term.changed})
		case TermWith:
			q.required.Set(cid)
		case TermWithout:
			q.excluded.Set(cid)
		case TermOptional:
			q.optional.Set(cid)
			q.access.ReadsComponent(cid)
			q.terms = append(q.terms, queryTerm{kind: term.kind, cid: cid, added: term.added, changed: term.changed})
		}
	}

	q.required.Range(func(cid uint32) {
		q.requiredIDs = append(q.requiredIDs, cid)
	})

	return q, nil
}

// Access returns the access footprint the query implies for its owning system.
func (q *QueryDescriptor) Access() *AccessDescriptor {
	return &q.access
}

// matchesArchetype returns true if every required type is present and no excluded type is.
func (q *QueryDescriptor) matchesArchetype(a *archetype) bool {
	if !a.hasAll(q.required) {
		return false
	}
	return q.excluded.Count() == 0 || !a.hasAny(q.excluded)
}

// matchingArchetypes resolves the query to its matching archetypes. The first evaluation walks
// the smallest candidate bucket of the component index; later evaluations only examine
// archetypes created since.
func (q *QueryDescriptor) matchingArchetypes(w *World) []ArchetypeID {
	if len(q.requiredIDs) == 0 {
		// A query with no required term cannot be resolved through the index.
		return nil
	}

	if q.seen == 0 {
		bucket, ok := w.index.smallestBucket(q.requiredIDs)
		if ok {
			for _, aid := range bucket {
				if q.matchesArchetype(w.graph.get(aid)) {
					q.matches = append(q.matches, aid)
				}
			}
		}
		q.seen = w.graph.count()
		return q.matches
	}

	for aid := q.seen; aid < w.graph.count(); aid++ {
		if q.matchesArchetype(w.graph.get(aid)) {
			q.matches = append(q.matches, aid)
		}
	}
	q.seen = w.graph.count()
	return q.matches
}

// Row is one entity produced by query iteration. Column lookups through GetRow/MutRow are O(1)
// against the row's archetype.
type Row struct {
	Entity  Entity
	world   *World
	arch    *archetype
	row     int
	lastRun Tick
}

// Each iterates matching archetypes row by row. Data-term columns are resolved once per
// archetype, not per row. Disabled entities are skipped, as are rows failing a term's
// Added/Changed filter (compared against lastRun). Return false from the callback to stop.
// Structural mutations during iteration are forbidden; defer them through a CommandBuffer.
func (q *QueryDescriptor) Each(w *World, lastRun Tick, fn func(Row) bool) {
	for _, aid := range q.matchingArchetypes(w) {
		arch := w.graph.get(aid)

		// Resolve each data term's column once per archetype. Optional terms resolve to nil
		// when the archetype lacks the component.
		cols := make([]abstractColumn, len(q.terms))
		for i, term := range q.terms {
			cols[i] = arch.column(term.cid)
			assert.That(cols[i] != nil || term.kind == TermOptional, "required column missing from matched archetype")
		}

	rows:
		for row := 0; row < arch.entityCount(); row++ {
			entity := arch.entities[row]
			if entity.HasFlag(FlagDisabled) {
				continue
			}

			for i, term := range q.terms {
				if !term.added && !term.changed {
					continue
				}
				col := cols[i]
				if col == nil {
					// Change filters don't apply to absent optional components.
					continue
				}
				ticks := col.ticks(row)
				if term.added && !ticks.WasAdded(lastRun) {
					continue rows
				}
				if term.changed && !ticks.WasChanged(lastRun) {
					continue rows
				}
			}

			if !fn(Row{Entity: entity, world: w, arch: arch, row: row, lastRun: lastRun}) {
				return
			}
		}
	}
}

// Count returns the number of entities matching the query.
func (q *QueryDescriptor) Count(w *World, lastRun Tick) int {
	count := 0
	q.Each(w, lastRun, func(Row) bool {
		count++
		return true
	})
	return count
}

// First returns the first entity matching the query.
func (q *QueryDescriptor) First(w *World, lastRun Tick) (Entity, bool) {
	found := EntityInvalid
	q.Each(w, lastRun, func(r Row) bool {
		found = r.Entity
		return false
	})
	return found, found != EntityInvalid
}

// GetRow reads component T from a query row.
func GetRow[T Component](r Row) (T, bool) {
	var zero T
	cid, err := r.world.components.getID(zero.Name())
	if err != nil {
		return zero, false
	}
	col := r.arch.column(cid)
	if col == nil {
		return zero, false
	}
	concrete, ok := col.(*column[T])
	assert.That(ok, "column type mismatch for component %s", zero.Name())
	return concrete.get(r.row), true
}

// MutRow returns a deferred mutable handle to component T on a query row. The component is
// stamped changed only when the handle is actually dereferenced.
func MutRow[T Component](r Row) (Mut[T], bool) {
	var zero T
	cid, err := r.world.components.getID(zero.Name())
	if err != nil {
		return Mut[T]{}, false
	}
	col := r.arch.column(cid)
	if col == nil {
		return Mut[T]{}, false
	}
	concrete, ok := col.(*column[T])
	assert.That(ok, "column type mismatch for component %s", zero.Name())
	return Mut[T]{col: concrete, row: r.row, now: r.world.currentTick()}, true
}

// TicksRow returns the change-detection ticks of component T on a query row.
func TicksRow[T Component](r Row) (ComponentTicks, bool) {
	var zero T
	cid, err := r.world.components.getID(zero.Name())
	if err != nil {
		return ComponentTicks{}, false
	}
	col := r.arch.column(cid)
	if col == nil {
		return ComponentTicks{}, false
	}
	return col.ticks(r.row), true
}
