package ops

import "github.com/lucko515/residual-network/internal/tensor"

// DivOp records c = a / b (element-wise).
type DivOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewDivOp creates an element-wise division operation.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *DivOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *DivOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward: ∂c/∂a = 1/b, ∂c/∂b = -a/b².
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.Div(outputGrad, op.b)

	bSquared := backend.Mul(op.b, op.b)
	gradB := negateGradient(backend.Div(backend.Mul(outputGrad, op.a), bSquared), backend)

	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}
