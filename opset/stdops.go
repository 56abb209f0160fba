package opset

// StandardRegistry returns a Registry preloaded with the schemas for
// the fixed operator set symbolic.NewEvaluator ships shape rules for:
// aten clone/add/mul/copy_, the four view/scatter pairs, and split.
// cmd/reinplace builds against this registry rather than hand-rolling
// one per invocation, the same way go/types' Scope chain resolves
// identifiers against a single predeclared universe scope instead of
// re-registering int/string/etc. per compilation.
func StandardRegistry() *Registry {
	reg := NewRegistry()

	tensorArg := func(name string) Arg { return Arg{Name: name, Type: "Tensor"} }
	writeTensorArg := func(name string) Arg {
		return Arg{Name: name, Type: "Tensor", Alias: &AliasInfo{IsWrite: true}}
	}
	viewTensorArg := func(name string, after ...string) Arg {
		set := make(map[string]struct{}, len(after))
		for _, a := range after {
			set[a] = struct{}{}
		}
		return Arg{Name: name, Type: "Tensor", Alias: &AliasInfo{IsWrite: false, After: set}}
	}
	intArg := func(name string) Arg { return Arg{Name: name, Type: "int"} }
	intsArg := func(name string) Arg { return Arg{Name: name, Type: "int[]"} }

	reg.Register(&Op{Namespace: "aten", Name: "clone", Args: []Arg{tensorArg("self")}})
	reg.Register(&Op{Namespace: "aten", Name: "add", Args: []Arg{tensorArg("self"), tensorArg("other")}})
	reg.Register(&Op{Namespace: "aten", Name: "add_", Args: []Arg{writeTensorArg("self"), tensorArg("other")}})
	reg.Register(&Op{Namespace: "aten", Name: "mul", Args: []Arg{tensorArg("self"), tensorArg("other")}})
	reg.Register(&Op{Namespace: "aten", Name: "mul_", Args: []Arg{writeTensorArg("self"), tensorArg("other")}})
	reg.Register(&Op{Namespace: "aten", Name: "copy_", Args: []Arg{writeTensorArg("self"), tensorArg("src")}})

	reg.Register(&Op{Namespace: "aten", Name: "select", Args: []Arg{
		viewTensorArg("self"), intArg("dim"), intArg("index"),
	}})
	reg.Register(&Op{Namespace: "aten", Name: "select_scatter", Args: []Arg{
		tensorArg("self"), tensorArg("src"), intArg("dim"), intArg("index"),
	}})

	reg.Register(&Op{Namespace: "aten", Name: "slice", Args: []Arg{
		viewTensorArg("self"), intArg("dim"), intArg("start"), intArg("end"), intArg("step"),
	}})
	reg.Register(&Op{Namespace: "aten", Name: "slice_scatter", Args: []Arg{
		tensorArg("self"), tensorArg("src"), intArg("dim"), intArg("start"), intArg("end"), intArg("step"),
	}})

	reg.Register(&Op{Namespace: "aten", Name: "diagonal", Args: []Arg{
		viewTensorArg("self"), intArg("offset"),
	}})
	reg.Register(&Op{Namespace: "aten", Name: "diagonal_scatter", Args: []Arg{
		tensorArg("self"), tensorArg("src"), intArg("offset"),
	}})

	reg.Register(&Op{Namespace: "aten", Name: "as_strided", Args: []Arg{
		viewTensorArg("self"), intsArg("size"), intsArg("stride"), intArg("storage_offset"),
	}})
	reg.Register(&Op{Namespace: "aten", Name: "as_strided_scatter", Args: []Arg{
		tensorArg("self"), tensorArg("src"), intsArg("size"), intsArg("stride"), intArg("storage_offset"),
	}})

	reg.Register(&Op{Namespace: "aten", Name: "split", Args: []Arg{
		viewTensorArg("self", Star), intArg("split_size"),
	}})

	return reg
}
