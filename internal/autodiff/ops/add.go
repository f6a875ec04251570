package ops

import "github.com/lucko515/residual-network/internal/tensor"

// AddOp records c = a + b.
type AddOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddOp creates an addition operation.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *AddOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *AddOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward passes the gradient through unchanged, reducing over dimensions
// that were broadcast in the forward pass.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(outputGrad, op.b.Shape(), backend),
	}
}
