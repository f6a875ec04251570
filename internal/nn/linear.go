package nn

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ Wᵀ + b.
//
// Weight shape: [outFeatures, inFeatures], bias shape: [outFeatures].
type Linear[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B]

	inFeatures  int
	outFeatures int
	backend     B
}

// NewLinear creates a fully connected layer with He-normal weights and zero
// bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	weight := HeNormal(inFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	bias := Zeros(tensor.Shape{outFeatures}, backend)

	return &Linear[B]{
		weight:      NewParameter("linear.weight", weight),
		bias:        NewParameter("linear.bias", bias),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		backend:     backend,
	}
}

// Forward computes y = x @ Wᵀ + b for input [batch, inFeatures].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected input [batch, %d], got %v", l.inFeatures, shape))
	}

	out := input.MatMul(l.weight.Tensor().T())
	return out.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns the weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}
