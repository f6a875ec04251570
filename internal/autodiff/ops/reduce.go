package ops

import "github.com/lucko515/residual-network/internal/tensor"

// SumDimOp records output = SumDim(input, dim, keepDim).
// dim is stored already normalized to a non-negative index.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a dimension-sum operation.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

// Inputs returns the input tensors.
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward broadcasts the gradient across the summed dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := restoreDim(outputGrad, op.input.Shape(), op.dim, op.keepDim, backend)
	return []*tensor.RawTensor{
		broadcastTo(grad, op.input.Shape(), backend),
	}
}

// MeanDimOp records output = MeanDim(input, dim, keepDim).
// dim is stored already normalized to a non-negative index.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a dimension-mean operation.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

// Inputs returns the input tensors.
func (op *MeanDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward broadcasts the gradient across the averaged dimension, divided by
// the dimension's size.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dimSize := op.input.Shape()[op.dim]
	grad := backend.MulScalar(outputGrad, 1.0/float32(dimSize))
	grad = restoreDim(grad, op.input.Shape(), op.dim, op.keepDim, backend)
	return []*tensor.RawTensor{
		broadcastTo(grad, op.input.Shape(), backend),
	}
}
