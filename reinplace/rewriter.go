package reinplace

import (
	"strings"

	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/internal/obslog"
	"github.com/tensorir/reinplace/opset"
	"github.com/tensorir/reinplace/symbolic"
)

// Rewriter makes one pass over every call_function node, retargeting
// eligible calls to their in-place sibling, rewiring downstream
// references, and accumulating scatter nodes proven dead. It mutates
// Graph and Alias directly; DeadScatter is handed to SweepDeadScatter
// (deadscatter.go) once Run returns.
type Rewriter struct {
	Graph     *graph.Graph
	Registry  *opset.Registry
	Evaluator *symbolic.Evaluator
	Alias     *AliasIndex
	Logger    *obslog.Logger // nil is a valid, silent default

	// DisableViewInverse turns off the view-inverse matcher (passconfig
	// knob): every candidate with any surviving later use is skipped,
	// even one a scatter would otherwise prove safe.
	DisableViewInverse bool

	DeadScatter map[*graph.Node]struct{}

	// Decisions accumulates one Decision per candidate Call node
	// visited by Run, independent of Logger: the structured record
	// cmd/reinplace's report renderer reads back, where Logger is only
	// the opt-in debug trace.
	Decisions []Decision
}

// Decision is one candidate's rewrite outcome: Verdict is "rewritten"
// or "skipped", Reason names why.
type Decision struct {
	Candidate string
	Verdict   string
	Reason    string
}

// NewRewriter builds a Rewriter over an already-MetadataProp'd graph
// with its alias index already built.
func NewRewriter(g *graph.Graph, reg *opset.Registry, ev *symbolic.Evaluator, idx *AliasIndex) *Rewriter {
	return &Rewriter{
		Graph:       g,
		Registry:    reg,
		Evaluator:   ev,
		Alias:       idx,
		DeadScatter: make(map[*graph.Node]struct{}),
	}
}

// Run sweeps Graph.Nodes once in program order: each candidate is
// visited exactly once, there is no retry. It snapshots the node list
// up front since later-in-the-sweep substitutions never insert new
// nodes, only retarget and rewire existing ones.
func (rw *Rewriter) Run() error {
	nodes := append([]*graph.Node(nil), rw.Graph.Nodes...)
	for _, n := range nodes {
		if n.Op != graph.Call {
			continue
		}
		if err := rw.tryRewrite(n); err != nil {
			return err
		}
	}
	return nil
}

func (rw *Rewriter) tryRewrite(n *graph.Node) error {
	skip := func(reason string) error {
		rw.Logger.RewriteDecision(n.Name, "skipped", reason)
		rw.Decisions = append(rw.Decisions, Decision{Candidate: n.Name, Verdict: "skipped", Reason: reason})
		return nil
	}

	op, err := rw.Registry.InplaceOf(n.Target)
	if err != nil {
		return err
	}
	if op == nil {
		return skip("no matching in-place sibling")
	}
	if len(n.Target.Args) == 0 || !strings.Contains(n.Target.Args[0].Type, "Tensor") {
		return skip("first argument is not tensor-like")
	}
	if len(n.Args) == 0 || !n.Args[0].IsNode() {
		return skip("first argument is not a node reference")
	}

	self := n.Args[0].Node
	selfTensor, ok := self.FakeResult.(*symbolic.Tensor)
	if !ok {
		return skip("self's fake result is not a tensor")
	}
	if rw.Alias.IsInputStorage(selfTensor.Store) {
		return skip("self aliases a placeholder")
	}
	if countSelfOccurrences(n, self) > 1 {
		return skip("self appears more than once in args")
	}

	alias := rw.Alias.ClassOf(selfTensor.Store)
	later := LaterUses(alias, n.NodeIdx)
	var inverted []*graph.Node
	if !rw.DisableViewInverse {
		inverted = ViewInverseMatches(later, alias, rw.Evaluator)
	}
	invertedSet := make(map[*graph.Node]struct{}, len(inverted))
	for _, s := range inverted {
		invertedSet[s] = struct{}{}
	}
	for _, l := range later {
		if _, ok := invertedSet[l]; !ok {
			return skip("unsafe aliasing: a later use is not inverted by a scatter")
		}
	}

	nTensor, ok := n.FakeResult.(*symbolic.Tensor)
	if !ok {
		return skip("result is not a tensor")
	}

	n.Target = op
	rw.Alias.Union(selfTensor.Store, nTensor.Store)

	rw.rewireDownstream(n, inverted)

	for _, s := range inverted {
		rw.DeadScatter[s] = struct{}{}
	}
	rw.Logger.RewriteDecision(n.Name, "rewritten", op.QualifiedName())
	rw.Decisions = append(rw.Decisions, Decision{Candidate: n.Name, Verdict: "rewritten", Reason: op.QualifiedName()})
	return nil
}

func countSelfOccurrences(n *graph.Node, self *graph.Node) int {
	count := 0
	for _, a := range n.Args {
		if a.IsNode() && a.Node == self {
			count++
		}
	}
	return count
}

// rewireDownstream retargets downstream references after a rewrite:
// for each node o in {n} ∪ inverted, every later node's reference to o
// is replaced with o's own first argument (the value o is now known to
// alias in place of). Whenever the substituted node m itself shared a
// storage class with o, m's class is unioned with the replacement's
// class to keep every alias class reachable — union on every
// substitution, not only at the top-level rewrite site.
func (rw *Rewriter) rewireDownstream(n *graph.Node, inverted []*graph.Node) {
	rewriteTargets := append([]*graph.Node{n}, inverted...)
	for _, o := range rewriteTargets {
		if len(o.Args) == 0 || !o.Args[0].IsNode() {
			continue
		}
		replacement := o.Args[0].Node
		oTensor, oIsTensor := o.FakeResult.(*symbolic.Tensor)

		for _, m := range rw.Graph.Nodes {
			if m == o || m.NodeIdx <= n.NodeIdx {
				continue
			}
			if !rw.Graph.ReplaceArg(m, o, replacement) {
				continue
			}
			if !oIsTensor || !rw.Alias.InClass(oTensor.Store, m) {
				continue
			}
			mTensor, ok := m.FakeResult.(*symbolic.Tensor)
			if !ok {
				continue
			}
			replTensor, ok := replacement.FakeResult.(*symbolic.Tensor)
			if !ok {
				continue
			}
			rw.Alias.Union(mTensor.Store, replTensor.Store)
		}
	}
}
