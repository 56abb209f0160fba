package reinplace

import (
	"github.com/tensorir/reinplace/opset"
)

// newTestOps returns opset.StandardRegistry() plus a name-indexed
// lookup table over its (non in-place) overloads, so each test can
// reach straight for the *opset.Op it needs as a node's Target instead
// of re-declaring the operator set cmd/reinplace already builds
// against.
func newTestOps() (*opset.Registry, map[string]*opset.Op) {
	reg := opset.StandardRegistry()
	ops := make(map[string]*opset.Op)
	for _, name := range []string{
		"clone", "add", "add_", "mul", "mul_", "copy_",
		"select", "select_scatter",
		"slice", "slice_scatter",
		"diagonal", "diagonal_scatter",
		"as_strided", "as_strided_scatter",
		"split",
	} {
		overloads := reg.Lookup("aten", name)
		if len(overloads) != 1 {
			panic("reinplace: test fixture expected exactly one aten::" + name + " overload")
		}
		ops[name] = overloads[0]
	}
	return reg, ops
}

// viewTensorArg builds a minimal view-producing first-argument schema
// slot (non-write alias info, empty after-set), enough for tests that
// need a standalone bogus op to exercise opset.ViewTypeOf/MetadataProp
// without pulling in the full standard registry.
func viewTensorArg(name string) opset.Arg {
	return opset.Arg{Name: name, Type: "Tensor", Alias: &opset.AliasInfo{IsWrite: false}}
}
