package ops

import "github.com/lucko515/residual-network/internal/tensor"

// TransposeOp records output = Transpose(input, axes).
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a transpose operation. axes must be the resolved
// permutation actually applied in the forward pass (never empty).
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{input: input, output: output, axes: axes}
}

// Inputs returns the input tensors.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{
		backend.Transpose(outputGrad, inverse...),
	}
}
