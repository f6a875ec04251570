package ops

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// ReLUOp records output = max(input, 0).
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a ReLU operation.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward masks the gradient where the input was non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad, err := tensor.NewRaw(op.input.Shape().Clone(), tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("relu backward: %v", err))
	}

	input := op.input.AsFloat32()
	upstream := outputGrad.AsFloat32()
	out := grad.AsFloat32()

	for i := range out {
		if input[i] > 0 {
			out[i] = upstream[i]
		}
	}
	return []*tensor.RawTensor{grad}
}
