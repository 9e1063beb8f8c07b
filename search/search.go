// Package search provides dynamic, string-driven entity lookups: a component filter (built
// directly or parsed from a query-language string) optionally narrowed by an expression over
// component values. Dynamic search trades the speed of compiled queries for flexibility, and
// suits tooling and debugging rather than per-tick systems.
package search

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/cql"
	"github.com/hive-engine/queen/ecs"
	"github.com/hive-engine/queen/filter"
)

// Search is a lazily evaluated entity lookup. Configure it with Match/CQL/Where, then consume
// it with Each, Collect or Count. Configuration errors surface at consumption time.
type Search struct {
	world  *ecs.World
	filter filter.ComponentFilter
	where  *vm.Program
	err    error
}

// New starts a search matching every live entity.
func New(w *ecs.World) *Search {
	return &Search{world: w, filter: filter.All()}
}

// Match narrows the search with a component filter.
func (s *Search) Match(f filter.ComponentFilter) *Search {
	s.filter = f
	return s
}

// CQL narrows the search with a parsed query-language expression, resolving component names
// through the world's registry.
func (s *Search) CQL(query string) *Search {
	f, err := cql.Parse(query, s.world.ComponentZero)
	if err != nil {
		s.err = err
		return s
	}
	s.filter = f
	return s
}

// Where narrows the search with a boolean expression over component values, keyed by component
// name. Entities for which the expression errors (a referenced component is absent, say) are
// treated as non-matching.
func (s *Search) Where(expression string) *Search {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		s.err = eris.Wrapf(err, "failed to compile search expression %q", expression)
		return s
	}
	s.where = program
	return s
}

// Each runs the search, invoking fn for every match. Return false from fn to stop early.
func (s *Search) Each(fn func(ecs.Entity) bool) error {
	if s.err != nil {
		return s.err
	}

	var iterErr error
	s.world.EachEntity(func(e ecs.Entity) bool {
		components, err := s.world.ComponentsOf(e)
		if err != nil {
			iterErr = err
			return false
		}
		if !s.filter.MatchesComponents(components) {
			return true
		}
		if s.where != nil && !s.evalWhere(components) {
			return true
		}
		return fn(e)
	})
	return iterErr
}

// evalWhere runs the compiled expression against an entity's component values.
func (s *Search) evalWhere(components []ecs.Component) bool {
	env := make(map[string]any, len(components))
	for _, c := range components {
		env[c.Name()] = c
	}
	out, err := vm.Run(s.where, env)
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

// Collect runs the search and returns every match.
func (s *Search) Collect() ([]ecs.Entity, error) {
	var out []ecs.Entity
	err := s.Each(func(e ecs.Entity) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// Count runs the search and returns the number of matches.
func (s *Search) Count() (int, error) {
	count := 0
	err := s.Each(func(ecs.Entity) bool {
		count++
		return true
	})
	return count, err
}

// First runs the search and returns the first match.
func (s *Search) First() (ecs.Entity, error) {
	found := ecs.EntityInvalid
	err := s.Each(func(e ecs.Entity) bool {
		found = e
		return false
	})
	if err != nil {
		return ecs.EntityInvalid, err
	}
	if found == ecs.EntityInvalid {
		return ecs.EntityInvalid, eris.Wrap(ecs.ErrEntityNotFound, "search matched nothing")
	}
	return found, nil
}
