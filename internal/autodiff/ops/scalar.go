package ops

import "github.com/lucko515/residual-network/internal/tensor"

// AddScalarOp records output = input + scalar.
type AddScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddScalarOp creates a scalar addition operation.
func NewAddScalarOp(input, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *AddScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *AddScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward passes the gradient through unchanged.
func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad}
}

// MulScalarOp records output = input * scalar.
type MulScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar float32
}

// NewMulScalarOp creates a scalar multiplication operation.
func NewMulScalarOp(input, output *tensor.RawTensor, scalar float32) *MulScalarOp {
	return &MulScalarOp{input: input, output: output, scalar: scalar}
}

// Inputs returns the input tensors.
func (op *MulScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MulScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scales the gradient by the same factor.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MulScalar(outputGrad, op.scalar),
	}
}
