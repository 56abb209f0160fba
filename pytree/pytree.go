// Package pytree implements the container-traversal collaborator that
// maps a leaf function across arbitrarily nested result containers, in
// place of the original's duck-typed tree_map: a container visitor
// trait with one method per recognized shape (scalar, ordered
// sequence, keyed mapping). Visitor below is exactly that trait and
// Walk its traversal driver; WalkLeaves serves callers who only need a
// flat leaf callback (the common case, used by
// reinplace.BuildAliasIndex).
package pytree

import (
	"sort"

	"github.com/tensorir/reinplace/symbolic"
)

// Visitor is the container-shape dispatch trait from DESIGN NOTES.
type Visitor interface {
	VisitScalar(t *symbolic.Tensor)
	VisitSequence(seq []symbolic.Result)
	VisitMapping(m map[string]symbolic.Result)
}

// Walk recurses through r, which must be one of *symbolic.Tensor,
// []symbolic.Result, or map[string]symbolic.Result (or nil), invoking
// v's matching method at each level. Sequences are visited in order;
// mappings are visited in sorted key order for determinism, then each
// value is itself recursively walked.
func Walk(r symbolic.Result, v Visitor) {
	switch x := r.(type) {
	case nil:
		return
	case *symbolic.Tensor:
		v.VisitScalar(x)
	case []symbolic.Result:
		v.VisitSequence(x)
		for _, e := range x {
			Walk(e, v)
		}
	case map[string]symbolic.Result:
		v.VisitMapping(x)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			Walk(x[k], v)
		}
	}
}

// LeafFunc is invoked once per *symbolic.Tensor leaf encountered.
type LeafFunc func(t *symbolic.Tensor)

type leafVisitor struct{ f LeafFunc }

func (l leafVisitor) VisitScalar(t *symbolic.Tensor)         { l.f(t) }
func (l leafVisitor) VisitSequence(_ []symbolic.Result)      {}
func (l leafVisitor) VisitMapping(_ map[string]symbolic.Result) {}

// WalkLeaves is the common case: call f for every tensor leaf in r,
// ignoring container shape.
func WalkLeaves(r symbolic.Result, f LeafFunc) {
	Walk(r, leafVisitor{f: f})
}
