package nn

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// Conv2D is a 2D convolution layer with a square kernel.
//
// Weight shape: [outChannels, inChannels, kernelSize, kernelSize].
// Weights are He-normal initialized with fanIn = inChannels * kernelSize².
type Conv2D[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B] // nil when the layer has no bias

	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	backend     B
}

// NewConv2D creates a convolution layer. Convolutions feeding a
// normalization layer should pass useBias = false: the normalization's shift
// makes the bias redundant.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	fanIn := inChannels * kernelSize * kernelSize
	weight := HeNormal(fanIn, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, backend)

	conv := &Conv2D[B]{
		weight:      NewParameter("conv2d.weight", weight),
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		backend:     backend,
	}
	if useBias {
		conv.bias = NewParameter("conv2d.bias", Zeros(tensor.Shape{outChannels}, backend))
	}
	return conv
}

// Forward applies the convolution to input [N, inChannels, H, W].
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 || shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: expected input [N, %d, H, W], got %v", c.inChannels, shape))
	}

	raw := c.backend.Conv2D(input.Raw(), c.weight.Raw(), c.stride, c.padding)
	out := tensor.New[float32](raw, c.backend)

	if c.bias != nil {
		out = out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return out
}

// Parameters returns the kernel and, when present, the bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{c.weight}
	if c.bias != nil {
		params = append(params, c.bias)
	}
	return params
}

// OutputSize computes the spatial output size for a given input size.
func (c *Conv2D[B]) OutputSize(inputSize int) int {
	return (inputSize+2*c.padding-c.kernelSize)/c.stride + 1
}
