package nn

import "github.com/lucko515/residual-network/internal/tensor"

// Parameter is a named learnable tensor.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping the given tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter's name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the underlying tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Raw returns the parameter's RawTensor. Optimizers key gradient maps by
// this pointer.
func (p *Parameter[B]) Raw() *tensor.RawTensor {
	return p.tensor.Raw()
}
