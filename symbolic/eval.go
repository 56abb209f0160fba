package symbolic

import "fmt"

// ShapeFn computes the symbolic result of one operator invocation
// from its already-resolved arguments. args holds every positional
// argument in schema order: tensor-valued arguments arrive as *Tensor,
// everything else (dim, index, start, end, step, sizes, strides, ...)
// arrives as whatever literal Go value the caller attached to the
// node. kwargs holds keyword arguments the same way.
type ShapeFn func(args []any, kwargs map[string]any) (Result, error)

// Evaluator is the shape/stride-only symbolic executor: the fake
// tensor runtime collaborator, reduced to exactly the surface
// MetadataProp needs (evaluate one node at a time, in program order).
// It is the Go analogue of pointer/gen.go's analysis.valueNode walk,
// which likewise assigns a symbolic result to each SSA value in
// program order while tracking object/storage identity.
type Evaluator struct {
	fns map[string]ShapeFn
}

// NewEvaluator returns an Evaluator preloaded with shape rules for the
// built-in operator set the view-inverse table and worked examples
// rely on: clone, add/add_, mul/mul_, copy_, the four view ops
// (diagonal, select, slice, as_strided), their four scatter inverses,
// and split (a multi-output view).
func NewEvaluator() *Evaluator {
	e := &Evaluator{fns: make(map[string]ShapeFn)}
	e.Register("aten::clone", shapeClone)
	e.Register("aten::add", shapeBinaryOutOfPlace)
	e.Register("aten::add_", shapeBinaryInPlace)
	e.Register("aten::mul", shapeBinaryOutOfPlace)
	e.Register("aten::mul_", shapeBinaryInPlace)
	e.Register("aten::copy_", shapeCopyInPlace)
	e.Register("aten::diagonal", shapeDiagonal)
	e.Register("aten::select", shapeSelect)
	e.Register("aten::slice", shapeSlice)
	e.Register("aten::as_strided", shapeAsStrided)
	e.Register("aten::split", shapeSplit)
	e.Register("aten::diagonal_scatter", shapeScatter)
	e.Register("aten::select_scatter", shapeScatter)
	e.Register("aten::slice_scatter", shapeScatter)
	e.Register("aten::as_strided_scatter", shapeScatter)
	return e
}

// Register installs (or overrides) the shape rule for the operator
// named key, a "namespace::name" string (overload-insensitive: this
// surrogate models shape behavior per base operator name, since the
// operators in this IR do not overload on shape-relevant argument
// kinds).
func (e *Evaluator) Register(key string, fn ShapeFn) {
	e.fns[key] = fn
}

// Eval looks up and runs the shape rule for namespace/name, the Go
// analogue of the original's direct call into the real ATen kernel
// under FakeTensorMode.
func (e *Evaluator) Eval(namespace, name string, args []any, kwargs map[string]any) (Result, error) {
	key := namespace + "::" + name
	fn, ok := e.fns[key]
	if !ok {
		return nil, fmt.Errorf("symbolic: no shape rule registered for %s", key)
	}
	return fn(args, kwargs)
}

func asTensor(v any, which string) (*Tensor, error) {
	t, ok := v.(*Tensor)
	if !ok {
		return nil, fmt.Errorf("symbolic: expected %s to be a *Tensor, got %T", which, v)
	}
	return t, nil
}

func shapeClone(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	return NewTensor(append([]int(nil), self.Sizes...)), nil
}

func shapeBinaryOutOfPlace(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	return NewTensor(append([]int(nil), self.Sizes...)), nil
}

func shapeBinaryInPlace(args []any, _ map[string]any) (Result, error) {
	// In-place ops write into and return self: same shape, same
	// storage, same offset as the input.
	return asTensor(args[0], "self")
}

func shapeCopyInPlace(args []any, _ map[string]any) (Result, error) {
	return asTensor(args[0], "self")
}

func intArg(args []any, i int, name string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("symbolic: missing argument %s at position %d", name, i)
	}
	v, ok := args[i].(int)
	if !ok {
		return 0, fmt.Errorf("symbolic: expected %s to be an int, got %T", name, args[i])
	}
	return v, nil
}

// shapeDiagonal implements a 2-D diagonal view: diagonal(self, offset).
// Only the two-dimensional case is modeled, matching the worked
// examples in the view-inverse table.
func shapeDiagonal(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	offset := 0
	if len(args) > 1 {
		offset, err = intArg(args, 1, "offset")
		if err != nil {
			return nil, err
		}
	}
	if len(self.Sizes) != 2 {
		return nil, fmt.Errorf("symbolic: diagonal only modeled for 2-D tensors, got %d dims", len(self.Sizes))
	}
	rows, cols := self.Sizes[0], self.Sizes[1]
	var diagLen, rowStart, colStart int
	if offset >= 0 {
		diagLen = min(rows, cols-offset)
		rowStart, colStart = 0, offset
	} else {
		diagLen = min(rows+offset, cols)
		rowStart, colStart = -offset, 0
	}
	if diagLen < 0 {
		diagLen = 0
	}
	newOffset := self.Offset + rowStart*self.Strides[0] + colStart*self.Strides[1]
	return &Tensor{
		Sizes:   []int{diagLen},
		Strides: []int{self.Strides[0] + self.Strides[1]},
		Offset:  newOffset,
		Store:   self.Store,
	}, nil
}

// shapeSelect implements select(self, dim, index): drop dim, offset by
// index * stride[dim].
func shapeSelect(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	dim, err := intArg(args, 1, "dim")
	if err != nil {
		return nil, err
	}
	index, err := intArg(args, 2, "index")
	if err != nil {
		return nil, err
	}
	if dim < 0 || dim >= len(self.Sizes) {
		return nil, fmt.Errorf("symbolic: select dim %d out of range for sizes %v", dim, self.Sizes)
	}
	sizes := make([]int, 0, len(self.Sizes)-1)
	strides := make([]int, 0, len(self.Strides)-1)
	for i := range self.Sizes {
		if i == dim {
			continue
		}
		sizes = append(sizes, self.Sizes[i])
		strides = append(strides, self.Strides[i])
	}
	return &Tensor{
		Sizes:   sizes,
		Strides: strides,
		Offset:  self.Offset + index*self.Strides[dim],
		Store:   self.Store,
	}, nil
}

// shapeSlice implements slice(self, dim, start, end, step): a view
// narrowing dim to [start:end:step].
func shapeSlice(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	dim, err := intArg(args, 1, "dim")
	if err != nil {
		return nil, err
	}
	start, err := intArg(args, 2, "start")
	if err != nil {
		return nil, err
	}
	end, err := intArg(args, 3, "end")
	if err != nil {
		return nil, err
	}
	step := 1
	if len(args) > 4 {
		step, err = intArg(args, 4, "step")
		if err != nil {
			return nil, err
		}
	}
	if dim < 0 || dim >= len(self.Sizes) {
		return nil, fmt.Errorf("symbolic: slice dim %d out of range for sizes %v", dim, self.Sizes)
	}
	if end > self.Sizes[dim] {
		end = self.Sizes[dim]
	}
	length := 0
	if end > start {
		length = (end-start+step-1)/step
	}
	sizes := append([]int(nil), self.Sizes...)
	strides := append([]int(nil), self.Strides...)
	sizes[dim] = length
	strides[dim] = self.Strides[dim] * step
	return &Tensor{
		Sizes:   sizes,
		Strides: strides,
		Offset:  self.Offset + start*self.Strides[dim],
		Store:   self.Store,
	}, nil
}

// shapeAsStrided implements as_strided(self, sizes, strides,
// storage_offset): an arbitrary re-view of self's storage.
func shapeAsStrided(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	sizes, ok := args[1].([]int)
	if !ok {
		return nil, fmt.Errorf("symbolic: as_strided expects []int sizes, got %T", args[1])
	}
	strides, ok := args[2].([]int)
	if !ok {
		return nil, fmt.Errorf("symbolic: as_strided expects []int strides, got %T", args[2])
	}
	offset := self.Offset
	if len(args) > 3 {
		offset, err = intArg(args, 3, "storage_offset")
		if err != nil {
			return nil, err
		}
	}
	return &Tensor{
		Sizes:   append([]int(nil), sizes...),
		Strides: append([]int(nil), strides...),
		Offset:  offset,
		Store:   self.Store,
	}, nil
}

// shapeSplit implements a multi-output view: split(self, splitSize)
// along dim 0 into consecutive equally-sized chunks (a final, smaller
// remainder chunk is included if self's extent doesn't divide evenly).
func shapeSplit(args []any, _ map[string]any) (Result, error) {
	self, err := asTensor(args[0], "self")
	if err != nil {
		return nil, err
	}
	splitSize, err := intArg(args, 1, "split_size")
	if err != nil {
		return nil, err
	}
	if splitSize <= 0 || len(self.Sizes) == 0 {
		return nil, fmt.Errorf("symbolic: invalid split_size %d for sizes %v", splitSize, self.Sizes)
	}
	total := self.Sizes[0]
	var chunks []Result
	for start := 0; start < total; start += splitSize {
		length := splitSize
		if start+length > total {
			length = total - start
		}
		sizes := append([]int(nil), self.Sizes...)
		sizes[0] = length
		chunks = append(chunks, &Tensor{
			Sizes:   sizes,
			Strides: append([]int(nil), self.Strides...),
			Offset:  self.Offset + start*self.Strides[0],
			Store:   self.Store,
		})
	}
	return chunks, nil
}

// shapeScatter implements the four {view}_scatter operators
// (diagonal_scatter, select_scatter, slice_scatter, as_strided_scatter):
// all are functional — they return an independent tensor, same shape
// as base, backed by fresh storage. Their first argument never
// declares alias info (hence opset.ViewTypeOf classifies them
// NonView), matching real ATen: scatter ops break aliasing by design,
// which is exactly why re-inplacing the op they invert can delete them
// outright instead of just rewriting them.
func shapeScatter(args []any, _ map[string]any) (Result, error) {
	base, err := asTensor(args[0], "base")
	if err != nil {
		return nil, err
	}
	return NewTensor(append([]int(nil), base.Sizes...)), nil
}
