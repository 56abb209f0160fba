package opset

import "testing"

func writeArg(name, typ string) Arg {
	return Arg{Name: name, Type: typ, Alias: &AliasInfo{IsWrite: true}}
}

func plainArg(name, typ string) Arg {
	return Arg{Name: name, Type: typ}
}

func viewArg(name, typ string, multi bool) Arg {
	after := map[string]struct{}{}
	if multi {
		after[Star] = struct{}{}
	}
	return Arg{Name: name, Type: typ, Alias: &AliasInfo{IsWrite: false, After: after}}
}

func TestViewTypeOf(t *testing.T) {
	tests := []struct {
		name string
		op   *Op
		want ViewType
	}{
		{"no args", &Op{Name: "noop"}, NonView},
		{"plain op", &Op{Name: "add", Args: []Arg{plainArg("self", "Tensor"), plainArg("other", "Tensor")}}, NonView},
		{"single view", &Op{Name: "select", Args: []Arg{viewArg("self", "Tensor", false)}}, SingleOutputView},
		{"multi view", &Op{Name: "split", Args: []Arg{viewArg("self", "Tensor", true)}}, MultiOutputView},
		{"write first arg", &Op{Name: "add_", Args: []Arg{writeArg("self", "Tensor"), plainArg("other", "Tensor")}}, NonView},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ViewTypeOf(tt.op); got != tt.want {
				t.Errorf("ViewTypeOf(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsView(t *testing.T) {
	view := &Op{Name: "slice", Args: []Arg{viewArg("self", "Tensor", false)}}
	nonView := &Op{Name: "add", Args: []Arg{plainArg("self", "Tensor")}}
	if !IsView(view) {
		t.Error("expected slice to be a view")
	}
	if IsView(nonView) {
		t.Error("expected add not to be a view")
	}
}

func TestSchemasMatch(t *testing.T) {
	functional := &Op{Name: "add", Args: []Arg{plainArg("self", "Tensor"), plainArg("other", "Tensor")}}
	inplace := &Op{Name: "add_", Args: []Arg{writeArg("self", "Tensor"), plainArg("other", "Tensor")}}
	if !schemasMatch(functional, inplace) {
		t.Fatal("expected add/add_ schemas to match")
	}

	wrongArity := &Op{Name: "add_", Args: []Arg{writeArg("self", "Tensor")}}
	if schemasMatch(functional, wrongArity) {
		t.Fatal("expected arity mismatch to fail schemasMatch")
	}

	wrongType := &Op{Name: "add_", Args: []Arg{writeArg("self", "Tensor"), plainArg("other", "int")}}
	if schemasMatch(functional, wrongType) {
		t.Fatal("expected type mismatch to fail schemasMatch")
	}

	aliasedExtra := &Op{Name: "add_", Args: []Arg{writeArg("self", "Tensor"), writeArg("other", "Tensor")}}
	if schemasMatch(functional, aliasedExtra) {
		t.Fatal("expected non-first writable arg to fail schemasMatch")
	}

	readOnlySelf := &Op{Name: "add_", Args: []Arg{plainArg("self", "Tensor"), plainArg("other", "Tensor")}}
	if schemasMatch(functional, readOnlySelf) {
		t.Fatal("expected non-writing self to fail schemasMatch")
	}
}
