package reinplace

import (
	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/symbolic"
)

// viewToScatter is the fixed view/scatter correspondence table.
var viewToScatter = map[string]string{
	"diagonal":   "diagonal_scatter",
	"select":     "select_scatter",
	"slice":      "slice_scatter",
	"as_strided": "as_strided_scatter",
}

var scatterToView = invertViewTable(viewToScatter)

func invertViewTable(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for view, scatter := range m {
		out[scatter] = view
	}
	return out
}

// ViewInverseMatches finds, among later, the set of known scatter
// consumers whose write is exactly inverted by re-inplacing the
// candidate whose alias class is alias. ev replays each scatter's
// forward view to check the inverse relationship; replay failures are
// swallowed and simply fail that candidate, never propagated.
func ViewInverseMatches(later []*graph.Node, alias []*graph.Node, ev *symbolic.Evaluator) []*graph.Node {
	sorted := append([]*graph.Node(nil), later...)
	sortByNodeIdx(sorted)

	var accepted []*graph.Node
	for _, n := range sorted {
		if n.Op != graph.Call || n.Target == nil {
			continue
		}
		viewName, isScatter := scatterToView[n.Target.Name]
		if !isScatter {
			continue
		}
		if len(n.Args) < 2 || !n.Args[0].IsNode() {
			continue
		}
		baseNode := n.Args[0].Node
		baseTensor, ok := baseNode.FakeResult.(*symbolic.Tensor)
		if !ok {
			continue
		}

		if invertsFor(n, viewName, baseTensor, alias, ev) {
			accepted = append(accepted, n)
		}
	}
	return accepted
}

// invertsFor reports whether scatter node n (whose matching forward
// view is viewName) inverts the write that would land on some member
// of alias.
func invertsFor(n *graph.Node, viewName string, baseTensor *symbolic.Tensor, alias []*graph.Node, ev *symbolic.Evaluator) bool {
	for _, selfAlias := range alias {
		if selfAlias.ViewOf == nil {
			continue
		}
		selfBase := selfAlias.ViewOf
		selfBaseTensor, ok := selfBase.FakeResult.(*symbolic.Tensor)
		if !ok {
			continue
		}
		selfAliasTensor, ok := selfAlias.FakeResult.(*symbolic.Tensor)
		if !ok {
			continue
		}
		if !symbolic.SameView(baseTensor, selfBaseTensor) {
			continue
		}

		tailArgs := resolveArgList(n.Args[2:])
		args := append([]any{selfBaseTensor}, tailArgs...)
		replay, err := ev.Eval(n.Target.Namespace, viewName, args, resolveKwargs(n))
		if err != nil {
			// Symbolic-replay failure: not an inverse, try the next
			// alias-class member rather than failing the whole pass.
			continue
		}
		replayTensor, ok := replay.(*symbolic.Tensor)
		if !ok {
			continue
		}
		if symbolic.SameView(replayTensor, selfAliasTensor) {
			return true
		}
	}
	return false
}
