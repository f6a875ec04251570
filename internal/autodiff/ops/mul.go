package ops

import "github.com/lucko515/residual-network/internal/tensor"

// MulOp records c = a * b (element-wise).
type MulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMulOp creates an element-wise multiplication operation.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *MulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *MulOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward: ∂c/∂a = b, ∂c/∂b = a.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad, op.b), op.a.Shape(), backend),
		reduceBroadcast(backend.Mul(outputGrad, op.a), op.b.Shape(), backend),
	}
}
