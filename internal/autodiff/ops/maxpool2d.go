package ops

import "github.com/lucko515/residual-network/internal/tensor"

// MaxPool2DOp records output = MaxPool2D(input, kernelSize, stride).
type MaxPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a max pooling operation.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{input: input, output: output, kernelSize: kernelSize, stride: stride}
}

// Inputs returns the input tensors.
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward routes the gradient to the positions that won each pooling window.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MaxPool2DBackward(op.input, outputGrad, op.kernelSize, op.stride),
	}
}
