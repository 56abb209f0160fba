package reinplace

import (
	"testing"

	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/symbolic"
)

// buildSurvivingViewGraph builds: clone(x); view(clone); add(clone, 1);
// add(view, 1) — a view that survives with a real later use.
func buildSurvivingViewGraph(t *testing.T) (g *graph.Graph, clone, sel, add1, add2 *graph.Node, idx *AliasIndex) {
	t.Helper()
	_, ops := newTestOps()
	ev := symbolic.NewEvaluator()
	g = graph.New()

	x := g.NewPlaceholder("x")
	clone = g.NewCall("clone1", ops["clone"], []graph.Arg{graph.NodeArg(x)}, nil)
	sel = g.NewCall("select1", ops["select"], []graph.Arg{graph.NodeArg(clone), graph.LitArg(0), graph.LitArg(0)}, nil)
	add1 = g.NewCall("add1", ops["add"], []graph.Arg{graph.NodeArg(clone), graph.LitArg(1)}, nil)
	add2 = g.NewCall("add2", ops["add"], []graph.Arg{graph.NodeArg(sel), graph.LitArg(1)}, nil)

	if err := MetadataProp(g, ev, []*symbolic.Tensor{symbolic.NewTensor([]int{4, 4})}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx = BuildAliasIndex(g)
	return g, clone, sel, add1, add2, idx
}

func TestLaterUsesSkipsIntermediateViewButKeepsItsConsumer(t *testing.T) {
	_, clone, _, add1, add2, idx := buildSurvivingViewGraph(t)

	alias := idx.ClassOf(clone.FakeResult.(*symbolic.Tensor).Store)
	later := LaterUses(alias, clone.NodeIdx)

	if len(later) != 2 || later[0] != add1 || later[1] != add2 {
		t.Fatalf("expected later uses [add1, add2], got %v", later)
	}
}

func TestLaterUsesExcludesUsesAtOrBeforePivot(t *testing.T) {
	_, clone, sel, _, _, idx := buildSurvivingViewGraph(t)

	alias := idx.ClassOf(clone.FakeResult.(*symbolic.Tensor).Store)
	later := LaterUses(alias, sel.NodeIdx)

	for _, n := range later {
		if n.NodeIdx <= sel.NodeIdx {
			t.Fatalf("expected no later use at or before pivot %d, got %%%s at %d", sel.NodeIdx, n.Name, n.NodeIdx)
		}
	}
}
