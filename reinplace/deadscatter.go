package reinplace

import "github.com/tensorir/reinplace/graph"

// SweepDeadScatter runs after the Rewriter's full pass over the node
// list: erase every node in dead and recompile. Every dead node's
// references were already redirected by Rewriter.rewireDownstream, so
// it has no users by the time it is erased here; erase order does not
// matter.
func SweepDeadScatter(g *graph.Graph, dead map[*graph.Node]struct{}) error {
	for n := range dead {
		if err := g.Erase(n); err != nil {
			return err
		}
	}
	g.Recompile()
	return nil
}
