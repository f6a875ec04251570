// Package nn provides PyTorch-style neural network building blocks on top of
// the tensor and autodiff layers: parameterized layers, activations,
// containers and the loss/metric helpers used for training.
package nn

import "github.com/lucko515/residual-network/internal/tensor"

// Module is the interface all network layers implement.
type Module[B tensor.Backend] interface {
	// Forward computes the layer's output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all learnable parameters of the module.
	Parameters() []*Parameter[B]
}
