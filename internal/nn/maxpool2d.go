package nn

import "github.com/lucko515/residual-network/internal/tensor"

// MaxPool2D downsamples NCHW input by taking the maximum of each window.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward applies the pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32](m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride), m.backend)
}

// Parameters returns nil; pooling has no learnable state.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}
