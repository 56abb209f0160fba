// Package graph implements the functional dataflow graph IR that the
// re-inplacing pass operates over: an ordered sequence of nodes, each
// carrying an operator target, argument references, a keyword-argument
// map, a mutable metadata bag, and an automatically-maintained set of
// users (nodes that reference it).
//
// The pass itself (package reinplace) treats this package as an
// external collaborator: it only ever iterates Nodes in program order,
// reads/writes Args/Kwargs/Target/Meta, reads Users, and calls Erase +
// Recompile. Nothing here knows about tensors or operators in a deep
// way; schema lookup lives in package opset and shape/stride surrogate
// results live in package symbolic.
package graph

import (
	"fmt"
	"sort"

	"github.com/tensorir/reinplace/opset"
	"github.com/tensorir/reinplace/symbolic"
)

// Kind is a node's op kind.
type Kind int

const (
	Placeholder Kind = iota // a graph input
	Call                    // call_function: Target is set
	GetItem                 // indexing-getter projection out of a multi-output call
	Output                  // the graph's return value
)

func (k Kind) String() string {
	switch k {
	case Placeholder:
		return "placeholder"
	case Call:
		return "call_function"
	case GetItem:
		return "getitem"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Arg is one element of a node's ordered argument list or keyword-
// argument map: either a reference to a producing Node (a tensor-
// valued argument such as `self`) or a plain literal (dim, index,
// start/end/step, and so on). Exactly one of Node/Lit is meaningful
// for a given Arg; IsNode disambiguates.
type Arg struct {
	Node *Node
	Lit  any
}

// NodeArg wraps a node reference as an Arg.
func NodeArg(n *Node) Arg { return Arg{Node: n} }

// LitArg wraps a literal (non-node) value as an Arg.
func LitArg(v any) Arg { return Arg{Lit: v} }

// IsNode reports whether a is a reference to another node.
func (a Arg) IsNode() bool { return a.Node != nil }

// Node is one node of the graph. Fields documented as "set by
// MetadataProp" are zero/nil until reinplace.MetadataProp has run.
type Node struct {
	ID           int
	Op           Kind
	Name         string
	Target       *opset.Op // nil unless Op == Call
	GetItemIndex int       // valid iff Op == GetItem

	Args   []Arg
	Kwargs map[string]Arg
	Meta   map[string]any

	// Set by reinplace.MetadataProp: the node's symbolic shape/stride
	// result, its position in program order, and — for a view — the
	// node it's a view of.
	FakeResult symbolic.Result
	NodeIdx    int
	ViewOf     *Node // nil if this node is not a view

	users map[*Node]struct{}
}

// HasUsers reports whether any other node currently references n.
func (n *Node) HasUsers() bool { return len(n.users) > 0 }

// Users returns n's users (nodes that reference n), in ascending
// NodeIdx order once MetadataProp has run, with ties (and every user
// before MetadataProp) broken by ascending node ID. Later-use analysis relies on this deterministic order
// to make scatter-chain matching reproducible.
func (n *Node) Users() []*Node {
	out := make([]*Node, 0, len(n.users))
	for u := range n.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NodeIdx != out[j].NodeIdx {
			return out[i].NodeIdx < out[j].NodeIdx
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NodeArgs returns only the node-valued positional arguments, in
// order, discarding literals. Many analyses (effective-argument
// counting, repeated-self checks) only care about node references.
func (n *Node) NodeArgs() []*Node {
	var out []*Node
	for _, a := range n.Args {
		if a.IsNode() {
			out = append(out, a.Node)
		}
	}
	return out
}

func (n *Node) String() string {
	switch n.Op {
	case Placeholder:
		return fmt.Sprintf("%%%s = placeholder", n.Name)
	case Output:
		return fmt.Sprintf("output(%s)", argString(n.Args))
	case GetItem:
		return fmt.Sprintf("%%%s = getitem(%s, %d)", n.Name, argString(n.Args), n.GetItemIndex)
	default:
		return fmt.Sprintf("%%%s = call_function[target=%s](args=(%s))", n.Name, n.Target.QualifiedName(), argString(n.Args))
	}
}

func argString(args []Arg) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		if a.IsNode() {
			s += "%" + a.Node.Name
		} else {
			s += fmt.Sprintf("%v", a.Lit)
		}
	}
	return s
}

// Graph is an ordered, mutable sequence of Nodes forming a
// straight-line dataflow program.
type Graph struct {
	Nodes  []*Node
	nextID int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

func (g *Graph) alloc(op Kind, name string, target *opset.Op, getItemIndex int, args []Arg, kwargs map[string]Arg) *Node {
	n := &Node{
		ID:           g.nextID,
		Op:           op,
		Name:         name,
		Target:       target,
		GetItemIndex: getItemIndex,
		Args:         args,
		Kwargs:       kwargs,
		Meta:         make(map[string]any),
		users:        make(map[*Node]struct{}),
	}
	g.nextID++
	for _, a := range args {
		if a.IsNode() {
			a.Node.addUser(n)
		}
	}
	for _, a := range kwargs {
		if a.IsNode() {
			a.Node.addUser(n)
		}
	}
	g.Nodes = append(g.Nodes, n)
	return n
}

func (n *Node) addUser(user *Node) {
	if n.users == nil {
		n.users = make(map[*Node]struct{})
	}
	n.users[user] = struct{}{}
}

func (n *Node) removeUser(user *Node) {
	delete(n.users, user)
}

// NewPlaceholder appends a graph-input node.
func (g *Graph) NewPlaceholder(name string) *Node {
	return g.alloc(Placeholder, name, nil, 0, nil, nil)
}

// NewCall appends a call_function node invoking target with the given
// positional and keyword arguments.
func (g *Graph) NewCall(name string, target *opset.Op, args []Arg, kwargs map[string]Arg) *Node {
	return g.alloc(Call, name, target, 0, args, kwargs)
}

// NewGetItem appends an indexing-getter node projecting index out of
// src's (multi-output) result.
func (g *Graph) NewGetItem(name string, src *Node, index int) *Node {
	return g.alloc(GetItem, name, nil, index, []Arg{NodeArg(src)}, nil)
}

// NewOutput appends the graph's single output node.
func (g *Graph) NewOutput(value *Node) *Node {
	return g.alloc(Output, "output", nil, 0, []Arg{NodeArg(value)}, nil)
}

// ReplaceArg substitutes every occurrence of old with replacement in
// m's Args (by identity) and Kwargs (by node-name equality). It keeps
// Users() consistent by updating old's and replacement's user sets.
func (g *Graph) ReplaceArg(m *Node, old, replacement *Node) (changed bool) {
	for i, a := range m.Args {
		if a.IsNode() && a.Node == old {
			m.Args[i] = NodeArg(replacement)
			changed = true
		}
	}
	for k, v := range m.Kwargs {
		if v.IsNode() && v.Node.Name == old.Name {
			m.Kwargs[k] = NodeArg(replacement)
			changed = true
		}
	}
	if changed {
		old.removeUser(m)
		replacement.addUser(m)
	}
	return changed
}

// Erase removes n from the graph. It is an error to erase a node that
// still has users: the caller (reinplace's dead-scatter sweep) must
// rewire all downstream references before calling Erase, so a node is
// only ever destroyed once it has been proven dead.
func (g *Graph) Erase(n *Node) error {
	if len(n.users) > 0 {
		return fmt.Errorf("graph: cannot erase %%%s: still referenced by %d user(s)", n.Name, len(n.users))
	}
	idx := -1
	for i, cand := range g.Nodes {
		if cand == n {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("graph: node %%%s not present in graph", n.Name)
	}
	for _, a := range n.Args {
		if a.IsNode() {
			a.Node.removeUser(n)
		}
	}
	for _, a := range n.Kwargs {
		if a.IsNode() {
			a.Node.removeUser(n)
		}
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)
	return nil
}

// Recompile finalizes the graph after a round of mutation. The Python
// original recompiles fx's generated Python source from the mutated
// graph; this IR is interpreted directly, so there is no bytecode to
// regenerate. Recompile exists for interface parity with that step and
// does nothing: it checks neither program order nor NodeIdx.
func (g *Graph) Recompile() {
	// no bytecode to regenerate; intentionally a no-op.
}
