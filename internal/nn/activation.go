package nn

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// ReLUBackend is the extension interface for backends that implement the
// rectified linear unit natively.
type ReLUBackend interface {
	ReLU(t *tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies max(x, 0) element-wise.
type ReLU[B tensor.Backend] struct {
	backend B
}

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend](backend B) *ReLU[B] {
	return &ReLU[B]{backend: backend}
}

// Forward applies the activation. Panics if the backend does not implement
// ReLUBackend.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	rb, ok := any(r.backend).(ReLUBackend)
	if !ok {
		panic(fmt.Sprintf("relu: backend %s does not implement ReLUBackend", r.backend.Name()))
	}
	return tensor.New[float32](rb.ReLU(input.Raw()), r.backend)
}

// Parameters returns nil; the activation has no learnable state.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}
