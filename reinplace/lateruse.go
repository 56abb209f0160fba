package reinplace

import "github.com/tensorir/reinplace/graph"

// LaterUses returns, given an alias set A and a pivot node index,
// every node n such that n is a user of some member of A, n.NodeIdx is
// strictly past the pivot, and n is not itself an intermediate view
// node within A: chains of intermediate views do not count as uses —
// only their downstream non-view consumers do.
func LaterUses(alias []*graph.Node, pivotIdx int) []*graph.Node {
	inAlias := make(map[*graph.Node]struct{}, len(alias))
	for _, a := range alias {
		inAlias[a] = struct{}{}
	}

	seen := make(map[*graph.Node]struct{})
	for _, a := range alias {
		for _, u := range a.Users() {
			if u.NodeIdx <= pivotIdx {
				continue
			}
			if _, memberOfAlias := inAlias[u]; memberOfAlias && (u.Op == graph.Call || u.Op == graph.GetItem) {
				continue
			}
			seen[u] = struct{}{}
		}
	}

	out := make([]*graph.Node, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sortByNodeIdx(out)
	return out
}
