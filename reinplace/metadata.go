package reinplace

import (
	"fmt"

	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/opset"
	"github.com/tensorir/reinplace/symbolic"
)

// MetadataProp is a single forward walk over g.Nodes, the Go analogue
// of pointer/gen.go's one-pass genInstr dispatch over SSA values. It
// interprets the graph under ev, attaching FakeResult, NodeIdx, and
// ViewOf to every node. sampleInputs supplies one concrete surrogate
// tensor per placeholder node, in placeholder order — the Go side of
// reinplace(graph_module, *sample_args).
func MetadataProp(g *graph.Graph, ev *symbolic.Evaluator, sampleInputs []*symbolic.Tensor) error {
	placeholderIdx := 0
	multiOutputBase := make(map[*graph.Node]*graph.Node)
	idx := 0

	for _, n := range g.Nodes {
		switch n.Op {
		case graph.Placeholder:
			if placeholderIdx >= len(sampleInputs) {
				return fmt.Errorf("reinplace: not enough sample inputs for placeholder %%%s", n.Name)
			}
			n.FakeResult = sampleInputs[placeholderIdx]
			placeholderIdx++

		case graph.Output:
			if len(n.Args) != 1 || !n.Args[0].IsNode() {
				return fmt.Errorf("reinplace: output node %%%s must take exactly one node-valued argument", n.Name)
			}
			n.FakeResult = n.Args[0].Node.FakeResult

		case graph.GetItem:
			if len(n.Args) != 1 || !n.Args[0].IsNode() {
				return fmt.Errorf("reinplace: getitem %%%s must take exactly one node-valued argument", n.Name)
			}
			src := n.Args[0].Node
			seq, ok := src.FakeResult.([]symbolic.Result)
			if !ok {
				return fmt.Errorf("reinplace: getitem %%%s indexes non-multi-output node %%%s", n.Name, src.Name)
			}
			if n.GetItemIndex < 0 || n.GetItemIndex >= len(seq) {
				return fmt.Errorf("reinplace: getitem %%%s index %d out of range (len %d)", n.Name, n.GetItemIndex, len(seq))
			}
			n.FakeResult = seq[n.GetItemIndex]
			if base, ok := multiOutputBase[src]; ok {
				n.ViewOf = base
			}

		case graph.Call:
			args, kwargs := resolveArgs(n)
			res, err := ev.Eval(n.Target.Namespace, n.Target.Name, args, kwargs)
			if err != nil {
				return fmt.Errorf("reinplace: evaluating %%%s (%s): %w", n.Name, n.Target.QualifiedName(), err)
			}
			n.FakeResult = res

			// Effective-argument rule: copy_'s first argument is a pure
			// write target, not an input. The original computes this
			// list and never consults it; kept here only for interface
			// parity, never read back by any later stage of the pass.
			effective := n.NodeArgs()
			if n.Target.Name == "copy_" && len(effective) > 0 {
				effective = effective[1:]
			}
			n.Meta["effective_args"] = effective

			switch opset.ViewTypeOf(n.Target) {
			case opset.SingleOutputView:
				if len(n.Args) == 0 || !n.Args[0].IsNode() {
					return fmt.Errorf("reinplace: view node %%%s has no node-valued first argument", n.Name)
				}
				n.ViewOf = n.Args[0].Node
			case opset.MultiOutputView:
				if len(n.Args) == 0 || !n.Args[0].IsNode() {
					return fmt.Errorf("reinplace: multi-output view node %%%s has no node-valued first argument", n.Name)
				}
				multiOutputBase[n] = n.Args[0].Node
			}
		}

		n.NodeIdx = idx
		idx++

		if err := checkViewInvariant(n); err != nil {
			return err
		}
	}
	return nil
}

func resolveArgs(n *graph.Node) ([]any, map[string]any) {
	return resolveArgList(n.Args), resolveKwargs(n)
}

func resolveArgList(args []graph.Arg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a.IsNode() {
			out[i] = a.Node.FakeResult
		} else {
			out[i] = a.Lit
		}
	}
	return out
}

func resolveKwargs(n *graph.Node) map[string]any {
	if len(n.Kwargs) == 0 {
		return nil
	}
	kwargs := make(map[string]any, len(n.Kwargs))
	for k, a := range n.Kwargs {
		if a.IsNode() {
			kwargs[k] = a.Node.FakeResult
		} else {
			kwargs[k] = a.Lit
		}
	}
	return kwargs
}

// checkViewInvariant enforces the invariant that a view node's result
// storage must equal its base's.
func checkViewInvariant(n *graph.Node) error {
	if n.ViewOf == nil {
		return nil
	}
	self, ok := n.FakeResult.(*symbolic.Tensor)
	if !ok {
		return nil
	}
	base, ok := n.ViewOf.FakeResult.(*symbolic.Tensor)
	if !ok {
		return nil
	}
	if !symbolic.SameStorage(self, base) {
		return invariantf(n, "view %%%s's storage does not match its base %%%s's storage", n.Name, n.ViewOf.Name)
	}
	return nil
}
