// Package cql implements the component query language: a small boolean expression language
// over component names (EXACT, CONTAINS, ALL, !, &, |) that compiles to a filter.
package cql

import (
	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"

	"github.com/hive-engine/queen/ecs"
	"github.com/hive-engine/queen/filter"
)

type cqlOperator int

const (
	opAnd cqlOperator = iota
	opOr
)

var operatorMap = map[string]cqlOperator{"&": opAnd, "|": opOr}

// Capture tells the parser how to transform a parsed operator token into the operator type.
func (o *cqlOperator) Capture(s []string) error {
	if len(s) == 0 {
		return eris.New("invalid operator")
	}
	operator, ok := operatorMap[s[0]]
	if !ok {
		return eris.New("invalid operator")
	}
	*o = operator
	return nil
}

type cqlComponent struct {
	Name string `@Ident`
}

type cqlAll struct{}

func (a *cqlAll) Capture(values []string) error {
	if values[0] == "ALL" && values[1] == "(" && values[2] == ")" {
		*a = cqlAll{}
	}
	return nil
}

type cqlNot struct {
	SubExpression *cqlValue `"!" @@`
}

type cqlExact struct {
	Components []*cqlComponent `"EXACT" "(" (@@ ",")* @@ ")"`
}

type cqlContains struct {
	Components []*cqlComponent `"CONTAINS" "(" (@@ ",")* @@ ")"`
}

type cqlValue struct {
	All           *cqlAll      `@("ALL" "(" ")")`
	Exact         *cqlExact    `| @@`
	Contains      *cqlContains `| @@`
	Not           *cqlNot      `| @@`
	Subexpression *cqlTerm     `| "(" @@ ")"`
}

type cqlFactor struct {
	Base *cqlValue `@@`
}

type cqlOpFactor struct {
	Operator cqlOperator `@("&" | "|")`
	Factor   *cqlFactor  `@@`
}

type cqlTerm struct {
	Left  *cqlFactor     `@@`
	Right []*cqlOpFactor `@@*`
}

var parser = participle.MustBuild[cqlTerm]()

// Resolver maps a component name in a query to its registered zero value. Unknown names are
// parse errors.
type Resolver func(name string) (ecs.Component, error)

func resolveComponents(parts []*cqlComponent, resolve Resolver) ([]filter.ComponentWrapper, error) {
	out := make([]filter.ComponentWrapper, 0, len(parts))
	for _, part := range parts {
		c, err := resolve(part.Name)
		if err != nil {
			return nil, eris.Wrapf(err, "unknown component %q in query", part.Name)
		}
		out = append(out, filter.ComponentWrapper{Component: c})
	}
	return out, nil
}

func valueToFilter(value *cqlValue, resolve Resolver) (filter.ComponentFilter, error) {
	switch {
	case value.All != nil:
		return filter.All(), nil
	case value.Exact != nil:
		components, err := resolveComponents(value.Exact.Components, resolve)
		if err != nil {
			return nil, err
		}
		return filter.Exact(components...), nil
	case value.Contains != nil:
		components, err := resolveComponents(value.Contains.Components, resolve)
		if err != nil {
			return nil, err
		}
		return filter.Contains(components...), nil
	case value.Not != nil:
		inner, err := valueToFilter(value.Not.SubExpression, resolve)
		if err != nil {
			return nil, err
		}
		return filter.Not(inner), nil
	case value.Subexpression != nil:
		return termToFilter(value.Subexpression, resolve)
	default:
		return nil, eris.New("unknown query value")
	}
}

func termToFilter(term *cqlTerm, resolve Resolver) (filter.ComponentFilter, error) {
	if term.Left == nil {
		return nil, eris.New("query term missing left operand")
	}
	acc, err := valueToFilter(term.Left.Base, resolve)
	if err != nil {
		return nil, err
	}
	for _, opFactor := range term.Right {
		rhs, err := valueToFilter(opFactor.Factor.Base, resolve)
		if err != nil {
			return nil, err
		}
		switch opFactor.Operator {
		case opAnd:
			acc = filter.And(acc, rhs)
		case opOr:
			acc = filter.Or(acc, rhs)
		default:
			return nil, eris.Errorf("unknown operator %v", opFactor.Operator)
		}
	}
	return acc, nil
}

// Parse compiles a query string into a component filter, resolving component names through the
// given resolver.
func Parse(cqlText string, resolve Resolver) (filter.ComponentFilter, error) {
	term, err := parser.ParseString("", cqlText)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse query %q", cqlText)
	}
	return termToFilter(term, resolve)
}
