// Package reinplace implements the re-inplacing pass: a static
// optimization over a functional tensor dataflow graph that converts
// provably-safe out-of-place operations into their in-place
// counterparts and eliminates the view-scatter nodes that become dead
// once a mutation is re-inlined onto a view.
package reinplace

import (
	"errors"

	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/internal/obslog"
	"github.com/tensorir/reinplace/opset"
	"github.com/tensorir/reinplace/symbolic"
)

// PassContext holds the pass-scoped state shared across phases, per
// DESIGN NOTES' "hold them in a pass context object with explicit
// initialization and teardown": MetadataProp's decorated graph, the
// alias index, and the rewriter that accumulates dead scatter nodes.
type PassContext struct {
	Graph     *graph.Graph
	Registry  *opset.Registry
	Evaluator *symbolic.Evaluator
	Alias     *AliasIndex
	Rewriter  *Rewriter
}

// Reinplace is the pass's public entry point, the Go analogue of the
// original's reinplace(graph_module, sample_args...). sampleInputs
// supplies one concrete surrogate tensor per placeholder, consumed
// only by MetadataProp. The phases run in a single fixed order:
// MetadataProp, then the alias index, then one sweep of the Rewriter,
// then the dead-scatter sweep — sequential, with no retry and no
// concurrency.
func Reinplace(g *graph.Graph, reg *opset.Registry, ev *symbolic.Evaluator, sampleInputs []*symbolic.Tensor) (*graph.Graph, error) {
	out, _, err := ReinplaceWithOptions(g, reg, ev, sampleInputs, nil, false)
	return out, err
}

// ReinplaceWithOptions is Reinplace with an attached obslog.Logger
// (one structured record per rewrite decision, and one on an invariant
// violation reported by MetadataProp; a registry invariant error from
// the Rewriter is returned without a log record), the
// passconfig.Config.DisableViewInverse knob,
// and the same decisions back as a return value for cmd/reinplace's
// report renderer. A nil logger and disableViewInverse=false are
// equivalent to Reinplace.
func ReinplaceWithOptions(g *graph.Graph, reg *opset.Registry, ev *symbolic.Evaluator, sampleInputs []*symbolic.Tensor, logger *obslog.Logger, disableViewInverse bool) (*graph.Graph, []Decision, error) {
	ctx, err := newPassContext(g, reg, ev, sampleInputs)
	if err != nil {
		var invErr *InvariantError
		if errors.As(err, &invErr) {
			logger.InvariantViolation(invErr.Node.Name, invErr.Message)
		}
		return nil, nil, err
	}
	ctx.Rewriter.Logger = logger
	ctx.Rewriter.DisableViewInverse = disableViewInverse
	if err := ctx.Rewriter.Run(); err != nil {
		return nil, ctx.Rewriter.Decisions, err
	}
	if err := SweepDeadScatter(ctx.Graph, ctx.Rewriter.DeadScatter); err != nil {
		return nil, ctx.Rewriter.Decisions, err
	}
	return ctx.Graph, ctx.Rewriter.Decisions, nil
}

func newPassContext(g *graph.Graph, reg *opset.Registry, ev *symbolic.Evaluator, sampleInputs []*symbolic.Tensor) (*PassContext, error) {
	if err := MetadataProp(g, ev, sampleInputs); err != nil {
		return nil, err
	}
	idx := BuildAliasIndex(g)
	return &PassContext{
		Graph:     g,
		Registry:  reg,
		Evaluator: ev,
		Alias:     idx,
		Rewriter:  NewRewriter(g, reg, ev, idx),
	}, nil
}
