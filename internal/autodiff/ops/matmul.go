package ops

import "github.com/lucko515/residual-network/internal/tensor"

// MatMulOp records c = a @ b for 2D operands.
type MatMulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMatMulOp creates a matrix multiplication operation.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *MatMulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *MatMulOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward: ∂c/∂a = grad @ bᵀ, ∂c/∂b = aᵀ @ grad.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.MatMul(outputGrad, backend.Transpose(op.b, 1, 0))
	gradB := backend.MatMul(backend.Transpose(op.a, 1, 0), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}
