// Package ops defines the differentiable operations recorded on the gradient
// tape. Each operation stores the raw tensors of its forward pass and knows
// how to turn an upstream gradient into gradients for its inputs.
package ops

import "github.com/lucko515/residual-network/internal/tensor"

// Operation is one recorded step of the forward computation.
type Operation interface {
	// Backward computes the gradients of the operation's inputs given the
	// gradient of its output. The returned slice is parallel to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of the forward pass.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor of the forward pass.
	Output() *tensor.RawTensor
}
