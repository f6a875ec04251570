package nn

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// GlobalAvgPool2D averages each channel over its full spatial extent,
// turning [N, C, H, W] into [N, C]. Replacing flatten+linear stacks with
// global pooling keeps the classifier head independent of the spatial size.
type GlobalAvgPool2D[B tensor.Backend] struct {
	backend B
}

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D[B tensor.Backend](backend B) *GlobalAvgPool2D[B] {
	return &GlobalAvgPool2D[B]{backend: backend}
}

// Forward reduces the spatial dimensions to their mean.
func (g *GlobalAvgPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("global avg pool: expected 4D input, got %v", shape))
	}
	pooled := input.MeanDim(3, true).MeanDim(2, true)
	return pooled.Reshape(shape[0], shape[1])
}

// Parameters returns nil; pooling has no learnable state.
func (g *GlobalAvgPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}
