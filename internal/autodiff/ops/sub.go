package ops

import "github.com/lucko515/residual-network/internal/tensor"

// SubOp records c = a - b.
type SubOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubOp creates a subtraction operation.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *SubOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *SubOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward: ∂c/∂a = 1, ∂c/∂b = -1.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(negateGradient(outputGrad, backend), op.b.Shape(), backend),
	}
}
