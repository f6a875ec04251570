package ops

import "github.com/lucko515/residual-network/internal/tensor"

// SqrtOp records output = sqrt(input).
type SqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a square root operation.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SqrtOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SqrtOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward: d(sqrt(x))/dx = 1/(2*sqrt(x)) = 0.5/output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.Div(backend.MulScalar(outputGrad, 0.5), op.output),
	}
}

// RsqrtOp records output = 1/sqrt(input).
type RsqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewRsqrtOp creates a reciprocal square root operation.
func NewRsqrtOp(input, output *tensor.RawTensor) *RsqrtOp {
	return &RsqrtOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *RsqrtOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *RsqrtOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward: d(x^-1/2)/dx = -0.5 * x^-3/2 = -0.5 * output³.
func (op *RsqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	cube := backend.Mul(backend.Mul(op.output, op.output), op.output)
	return []*tensor.RawTensor{
		backend.MulScalar(backend.Mul(outputGrad, cube), -0.5),
	}
}
