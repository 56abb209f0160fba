package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tensorir/reinplace/graph"
	"github.com/tensorir/reinplace/opset"
	"github.com/tensorir/reinplace/symbolic"
)

// graphFile is the on-disk JSON shape the CLI reads: a placeholder
// list, one sample shape per placeholder (consumed only by
// MetadataProp, never by the rewriter itself), and a straight-line
// node list in program order. It is a minimal, hand-rolled analogue of
// the original's torch.fx GraphModule text format, reduced to exactly
// what graph.Graph and symbolic.Evaluator need to reconstruct a
// program.
type graphFile struct {
	Placeholders []string         `json:"placeholders"`
	SampleInputs map[string][]int `json:"sample_inputs"`
	Nodes        []graphFileNode  `json:"nodes"`
}

type graphFileNode struct {
	Name   string                     `json:"name"`
	Kind   string                     `json:"kind"` // "call", "getitem", or "output"
	Op     string                     `json:"op"`   // "namespace::name", kind=="call" only
	Args   []json.RawMessage          `json:"args"`
	Kwargs map[string]json.RawMessage `json:"kwargs"`
	Source string                     `json:"source"` // kind=="getitem" only
	Index  int                        `json:"index"`  // kind=="getitem" only
}

// loadGraphFile parses path and builds a *graph.Graph against reg,
// plus the ordered sample tensors MetadataProp expects.
func loadGraphFile(path string, reg *opset.Registry) (*graph.Graph, []*symbolic.Tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return gf.build(reg)
}

func (gf graphFile) build(reg *opset.Registry) (*graph.Graph, []*symbolic.Tensor, error) {
	g := graph.New()
	byName := make(map[string]*graph.Node, len(gf.Placeholders)+len(gf.Nodes))
	var samples []*symbolic.Tensor

	for _, name := range gf.Placeholders {
		byName[name] = g.NewPlaceholder(name)
		sizes, ok := gf.SampleInputs[name]
		if !ok {
			return nil, nil, fmt.Errorf("placeholder %q has no entry under sample_inputs", name)
		}
		samples = append(samples, symbolic.NewTensor(append([]int(nil), sizes...)))
	}

	for _, nf := range gf.Nodes {
		switch nf.Kind {
		case "call":
			op, err := lookupOp(reg, nf.Op)
			if err != nil {
				return nil, nil, err
			}
			args, err := resolveArgs(nf.Args, op, byName)
			if err != nil {
				return nil, nil, fmt.Errorf("node %q: %w", nf.Name, err)
			}
			kwargs, err := resolveKwargs(nf.Kwargs, byName)
			if err != nil {
				return nil, nil, fmt.Errorf("node %q: %w", nf.Name, err)
			}
			byName[nf.Name] = g.NewCall(nf.Name, op, args, kwargs)

		case "getitem":
			src, ok := byName[nf.Source]
			if !ok {
				return nil, nil, fmt.Errorf("getitem %q references unknown source %q", nf.Name, nf.Source)
			}
			byName[nf.Name] = g.NewGetItem(nf.Name, src, nf.Index)

		case "output":
			if len(nf.Args) != 1 {
				return nil, nil, fmt.Errorf("output node %q must take exactly one argument", nf.Name)
			}
			ref, ok := nodeRef(nf.Args[0], byName)
			if !ok {
				return nil, nil, fmt.Errorf("output node %q's argument must reference a node", nf.Name)
			}
			g.NewOutput(ref)

		default:
			return nil, nil, fmt.Errorf("node %q: unknown kind %q", nf.Name, nf.Kind)
		}
	}
	return g, samples, nil
}

func lookupOp(reg *opset.Registry, qualified string) (*opset.Op, error) {
	namespace, name, ok := strings.Cut(qualified, "::")
	if !ok {
		return nil, fmt.Errorf("operator %q must be namespace::name", qualified)
	}
	overloads := reg.Lookup(namespace, name)
	if len(overloads) == 0 {
		return nil, fmt.Errorf("no registered operator %q", qualified)
	}
	return overloads[0], nil
}

// nodeRef reports whether raw decodes as a JSON string naming an
// already-built node, returning that node if so.
func nodeRef(raw json.RawMessage, byName map[string]*graph.Node) (*graph.Node, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return nil, false
	}
	n, ok := byName[name]
	return n, ok
}

func resolveArgs(raws []json.RawMessage, op *opset.Op, byName map[string]*graph.Node) ([]graph.Arg, error) {
	out := make([]graph.Arg, len(raws))
	for i, raw := range raws {
		if n, ok := nodeRef(raw, byName); ok {
			out[i] = graph.NodeArg(n)
			continue
		}
		var argType string
		if i < len(op.Args) {
			argType = op.Args[i].Type
		}
		lit, err := decodeLiteral(raw, argType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = graph.LitArg(lit)
	}
	return out, nil
}

func resolveKwargs(raws map[string]json.RawMessage, byName map[string]*graph.Node) (map[string]graph.Arg, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make(map[string]graph.Arg, len(raws))
	for k, raw := range raws {
		if n, ok := nodeRef(raw, byName); ok {
			out[k] = graph.NodeArg(n)
			continue
		}
		lit, err := decodeLiteral(raw, "")
		if err != nil {
			return nil, fmt.Errorf("kwarg %q: %w", k, err)
		}
		out[k] = graph.LitArg(lit)
	}
	return out, nil
}

// decodeLiteral decodes a non-node-reference argument. argType steers
// the int vs. int[] distinction (JSON numbers are untyped); an empty
// argType falls back to whatever shape the JSON value itself has.
func decodeLiteral(raw json.RawMessage, argType string) (any, error) {
	switch argType {
	case "int":
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "int[]":
		var v []int
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			return int(f), nil
		}
		return v, nil
	}
}
