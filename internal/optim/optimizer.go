// Package optim implements gradient-descent optimizers consuming the
// gradient maps produced by the autodiff tape.
package optim

import "github.com/lucko515/residual-network/internal/tensor"

// Optimizer updates parameters from a gradient map keyed by the parameters'
// RawTensors.
type Optimizer interface {
	// Step applies one update. Parameters without a gradient in the map are
	// left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// LR returns the current learning rate.
	LR() float32
}
