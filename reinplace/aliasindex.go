package reinplace

import (
	"sort"

	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/pytree"
	"github.com/tensorir/reinplace/symbolic"
)

// AliasIndex is the storage-to-nodes multimap plus the input-storages
// set, both pass-scoped per DESIGN NOTES' "hold them in a pass context
// object" guidance (see PassContext in pass.go, which holds this).
//
// Alias classes are maintained as a union-find over storage tokens
// rather than a plain map-of-sets: the rewriter unions classes
// repeatedly as it retargets candidates and rewires downstream
// references, and naively re-pointing two tokens at a freshly built
// merged set (without a canonical representative) loses membership
// information once a third token is unioned into either side. parent
// and storageToNodes are both keyed by storage token, but
// storageToNodes only ever holds a live entry under each class's
// current root; find resolves any token to that root, compressing the
// path as it goes.
type AliasIndex struct {
	parent         map[*symbolic.Storage]*symbolic.Storage
	storageToNodes map[*symbolic.Storage]map[*graph.Node]struct{}
	inputStorages  map[*symbolic.Storage]struct{}
}

// BuildAliasIndex walks every node's FakeResult (descending into
// nested containers via pytree.WalkLeaves) and classes it by storage
// token, then records every placeholder's storage token in
// input_storages. g must already have had MetadataProp run over it.
func BuildAliasIndex(g *graph.Graph) *AliasIndex {
	idx := &AliasIndex{
		parent:         make(map[*symbolic.Storage]*symbolic.Storage),
		storageToNodes: make(map[*symbolic.Storage]map[*graph.Node]struct{}),
		inputStorages:  make(map[*symbolic.Storage]struct{}),
	}
	for _, n := range g.Nodes {
		pytree.WalkLeaves(n.FakeResult, func(t *symbolic.Tensor) {
			idx.addNode(t.Store, n)
		})
		if n.Op == graph.Placeholder {
			if t, ok := n.FakeResult.(*symbolic.Tensor); ok {
				idx.inputStorages[t.Store] = struct{}{}
			}
		}
	}
	return idx
}

// find returns store's current canonical representative, compressing
// the path it walked. A token never seen before is its own root.
func (idx *AliasIndex) find(store *symbolic.Storage) *symbolic.Storage {
	if store == nil {
		return nil
	}
	parent, ok := idx.parent[store]
	if !ok {
		idx.parent[store] = store
		return store
	}
	if parent == store {
		return store
	}
	root := idx.find(parent)
	idx.parent[store] = root
	return root
}

func (idx *AliasIndex) addNode(store *symbolic.Storage, n *graph.Node) {
	root := idx.find(store)
	set, ok := idx.storageToNodes[root]
	if !ok {
		set = make(map[*graph.Node]struct{})
		idx.storageToNodes[root] = set
	}
	set[n] = struct{}{}
}

// ClassOf returns the alias set sharing store, in ascending NodeIdx
// order.
func (idx *AliasIndex) ClassOf(store *symbolic.Storage) []*graph.Node {
	set := idx.storageToNodes[idx.find(store)]
	out := make([]*graph.Node, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sortByNodeIdx(out)
	return out
}

// InClass reports whether n is currently a member of store's alias
// class.
func (idx *AliasIndex) InClass(store *symbolic.Storage, n *graph.Node) bool {
	set, ok := idx.storageToNodes[idx.find(store)]
	if !ok {
		return false
	}
	_, in := set[n]
	return in
}

// IsInputStorage reports whether store's alias class contains a
// placeholder's storage.
func (idx *AliasIndex) IsInputStorage(store *symbolic.Storage) bool {
	root := idx.find(store)
	for s := range idx.inputStorages {
		if idx.find(s) == root {
			return true
		}
	}
	return false
}

// Union merges a's and b's alias classes so that every member of
// either is reachable from both tokens afterward, however many times
// either side has already been merged with something else. It picks
// one root to survive (a's) and reparents the other underneath it, so
// a later find on any token ever unioned into either side — directly
// or transitively — resolves to the same, fully-populated class.
func (idx *AliasIndex) Union(a, b *symbolic.Storage) {
	rootA := idx.find(a)
	rootB := idx.find(b)
	if rootA == rootB {
		return
	}
	setA := idx.storageToNodes[rootA]
	setB := idx.storageToNodes[rootB]
	merged := make(map[*graph.Node]struct{}, len(setA)+len(setB))
	for n := range setA {
		merged[n] = struct{}{}
	}
	for n := range setB {
		merged[n] = struct{}{}
	}
	delete(idx.storageToNodes, rootB)
	idx.parent[rootB] = rootA
	idx.storageToNodes[rootA] = merged
}

func sortByNodeIdx(nodes []*graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].NodeIdx != nodes[j].NodeIdx {
			return nodes[i].NodeIdx < nodes[j].NodeIdx
		}
		return nodes[i].ID < nodes[j].ID
	})
}
