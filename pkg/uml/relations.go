package uml

import (
	"github.com/matzehuels/typetower/pkg/errors"
)

// Synthesize derives the typed edge set from the materialized graph.
//
// For every non-placeholder node it produces candidate edges: inheritance or
// implementation per class base, dependencies per member/parameter hint that
// resolves to a class, recursion into bound callables and builtin-container
// generics using the owning node as the edge source. Hints whose reference
// cannot be resolved are skipped silently; that is the single locally
// absorbed error condition of a pass.
//
// After generation, edges are converged: multiple edges between the same
// (source, target) pair collapse to a single Dependency edge. This keeps a
// class that touches the same type through several members from producing
// parallel arrows.
func Synthesize(s *Space) ([]Relation, error) {
	var rels []Relation
	for _, n := range s.Survivors() {
		var (
			nodeRels []Relation
			err      error
		)
		switch node := n.(type) {
		case *ClassNode:
			nodeRels, err = classRelations(node)
		case *CallableNode:
			// Bound callables are never independent space members, so a
			// callable reached here always anchors its own edges.
			nodeRels, err = callableRelations(node, node.QualifiedName())
		case *GenericNode:
			// Independent generics are type variables; their arguments
			// (constraints) anchor on the variable itself.
			nodeRels, err = genericRelations(node, "")
		default:
			err = errors.New(errors.ErrCodeInternal, "cannot synthesize relations for %T", n)
		}
		if err != nil {
			return nil, err
		}
		rels = append(rels, nodeRels...)
	}
	return converge(rels), nil
}

// classRelations produces base edges plus one edge set per member hint.
func classRelations(c *ClassNode) ([]Relation, error) {
	var rels []Relation

	for _, base := range c.Bases {
		target, ok := resolveHint(base)
		if !ok {
			continue
		}
		kind := Inheritance
		if cls, isClass := target.(*ClassNode); isClass && cls.Interface {
			kind = Implementation
		}
		rels = append(rels, Relation{Source: c.QualifiedName(), Target: target.QualifiedName(), Kind: kind})
	}

	for _, vis := range visibilityOrder {
		for _, m := range c.Attributes[vis] {
			r, err := hintRelations(c.QualifiedName(), m.Hint)
			if err != nil {
				return nil, err
			}
			rels = append(rels, r...)
		}
	}
	for _, vis := range visibilityOrder {
		for _, m := range c.Methods[vis] {
			r, err := hintRelations(c.QualifiedName(), m.Hint)
			if err != nil {
				return nil, err
			}
			rels = append(rels, r...)
		}
	}
	return rels, nil
}

// callableRelations produces edges for a callable's parameters and return,
// anchored on source. Bound callables have no identity of their own, so
// source must always be supplied by the owner.
func callableRelations(c *CallableNode, source string) ([]Relation, error) {
	if source == "" {
		return nil, errors.New(errors.ErrCodeMissingSource, "bound callable %s has no designated relation source", c.QualifiedName())
	}
	var rels []Relation
	for _, p := range c.Params {
		r, err := hintRelations(source, p.Hint)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r...)
	}
	if c.Return != nil {
		r, err := hintRelations(source, c.Return.Hint)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r...)
	}
	return rels, nil
}

// genericRelations produces edges for a generic type expression.
//
// Builtin containers are transparent: their argument edges are anchored on
// the owning source, and reaching one without a source is an invariant
// violation. Non-builtin generics keep their identity: with a source they
// become a single dependency edge; without one (a type variable visited
// independently) their arguments anchor on the generic itself.
func genericRelations(g *GenericNode, source string) ([]Relation, error) {
	if g.BuiltinContainer {
		if source == "" {
			return nil, errors.New(errors.ErrCodeMissingSource, "builtin container %s has no designated relation source", g.QualifiedName())
		}
		var rels []Relation
		for _, arg := range g.Args {
			r, err := hintRelations(source, arg.Hint)
			if err != nil {
				return nil, err
			}
			rels = append(rels, r...)
		}
		return rels, nil
	}

	if source != "" {
		return []Relation{{Source: source, Target: g.QualifiedName(), Kind: Dependency}}, nil
	}
	var rels []Relation
	for _, arg := range g.Args {
		r, err := hintRelations(g.QualifiedName(), arg.Hint)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r...)
	}
	return rels, nil
}

// hintRelations produces edges for one member/parameter hint anchored on
// source. Unresolvable references are skipped, never fatal.
func hintRelations(source string, h Hint) ([]Relation, error) {
	target, ok := resolveHint(h)
	if !ok {
		return nil, nil
	}

	switch node := target.(type) {
	case *ClassNode:
		return []Relation{{Source: source, Target: node.QualifiedName(), Kind: Dependency}}, nil
	case *CallableNode:
		if !node.Bound {
			// Free callables are independent space members that carry their
			// own relations; a single dependency edge suffices here.
			return []Relation{{Source: source, Target: node.QualifiedName(), Kind: Dependency}}, nil
		}
		return callableRelations(node, source)
	case *GenericNode:
		return genericRelations(node, source)
	default:
		return nil, nil
	}
}

// converge groups relations by (source, target) and collapses every
// multi-edge group to a single Dependency edge, discarding the more
// specific kinds. Singleton groups pass through unchanged. First-seen
// order of pairs is preserved.
func converge(rels []Relation) []Relation {
	type pair struct{ source, target string }

	counts := make(map[pair]int, len(rels))
	for _, r := range rels {
		counts[pair{r.Source, r.Target}]++
	}

	out := make([]Relation, 0, len(counts))
	seen := make(map[pair]bool, len(counts))
	for _, r := range rels {
		p := pair{r.Source, r.Target}
		if seen[p] {
			continue
		}
		seen[p] = true
		if counts[p] > 1 {
			out = append(out, Relation{Source: r.Source, Target: r.Target, Kind: Dependency})
		} else {
			out = append(out, r)
		}
	}
	return out
}
