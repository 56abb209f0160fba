package opset

import (
	"golang.org/x/xerrors"
)

// InvariantError reports a broken registry invariant: more than one
// in-place overload matching a single functional schema. These
// propagate as hard failures; every other classifier outcome in this
// package is a silent (nil, nil) skip.
type InvariantError struct {
	Op      *Op
	Message string
}

func (e *InvariantError) Error() string {
	return xerrors.Errorf("opset: broken registry invariant for %s: %s", e.Op.QualifiedName(), e.Message).Error()
}

// Registry is a two-level namespace → base name → overloads map,
// modeled on go/types' scope-chain lookup (here flattened to two
// levels since operators don't nest).
type Registry struct {
	ops map[string]map[string][]*Op
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]map[string][]*Op)}
}

// Register adds op to the registry under its namespace and base name.
func (r *Registry) Register(op *Op) {
	if r.ops[op.Namespace] == nil {
		r.ops[op.Namespace] = make(map[string][]*Op)
	}
	r.ops[op.Namespace][op.Name] = append(r.ops[op.Namespace][op.Name], op)
}

// Lookup returns every overload registered for baseName within
// namespace, or nil if there are none.
func (r *Registry) Lookup(namespace, baseName string) []*Op {
	byName, ok := r.ops[namespace]
	if !ok {
		return nil
	}
	return byName[baseName]
}

// InplaceOf implements the inplace_of query: it returns the in-place
// sibling of t, or (nil, nil) if t is itself a view, has no sibling
// named t.Name + "_", or no overload of that sibling has a schema
// matching via schemasMatch. If more than one overload matches, it
// returns an *InvariantError: a broken-registry condition this must
// fail fast on, never silently pick one.
func (r *Registry) InplaceOf(t *Op) (*Op, error) {
	if IsView(t) {
		return nil, nil
	}
	siblingName := t.Name + "_"
	candidates := r.Lookup(t.Namespace, siblingName)
	if len(candidates) == 0 {
		return nil, nil
	}
	var matches []*Op
	for _, c := range candidates {
		if schemasMatch(t, c) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &InvariantError{Op: t, Message: "more than one in-place overload matches this operator's schema"}
	}
}
