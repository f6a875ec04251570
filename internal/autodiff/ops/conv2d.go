package ops

import "github.com/lucko515/residual-network/internal/tensor"

// Conv2DOp records output = Conv2D(input, kernel, stride, padding).
// The backward pass delegates to the backend's dedicated convolution
// gradient kernels.
type Conv2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
}

// NewConv2DOp creates a convolution operation.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{
		input:   input,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

// Inputs returns the input tensors.
func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

// Output returns the output tensor.
func (op *Conv2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes gradients for both the input feature map and the kernel.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	kernelGrad := backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	return []*tensor.RawTensor{inputGrad, kernelGrad}
}
