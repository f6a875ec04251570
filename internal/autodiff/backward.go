package autodiff

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// BackwardCapable is satisfied by backends that carry a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	Tape() *GradientTape
}

// Backward seeds the backward pass from t with a gradient of ones and
// returns the gradient map for every tensor recorded on the tape.
//
// Typically t is a single-element loss tensor.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	outputGrad, err := tensor.NewRaw(t.Shape().Clone(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: %v", err))
	}
	ones := outputGrad.AsFloat32()
	for i := range ones {
		ones[i] = 1
	}
	return backend.Tape().Backward(outputGrad, backend)
}
