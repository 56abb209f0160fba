package reinplace

import (
	"golang.org/x/xerrors"

	"github.com/tensorir/reinplace/graph"
)

// InvariantError reports that storage tokens disagree between a view
// and its declared base. These are bugs upstream (a broken
// MetadataProp assumption, not an unprofitable rewrite site) and must
// fail the whole pass rather than being silently skipped.
type InvariantError struct {
	Node    *graph.Node
	Message string
}

func (e *InvariantError) Error() string {
	name := "<nil>"
	if e.Node != nil {
		name = e.Node.Name
	}
	return xerrors.Errorf("reinplace: broken invariant at node %%%s: %s", name, e.Message).Error()
}

func invariantf(n *graph.Node, format string, args ...any) error {
	return &InvariantError{Node: n, Message: xerrors.Errorf(format, args...).Error()}
}
