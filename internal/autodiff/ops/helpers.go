package ops

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor back to the target shape after
// broadcasting in the forward pass: broadcast dimensions are summed out.
//
// Example:
//
//	Forward:  a[1,16,1,1] + b[8,16,14,14] → c[8,16,14,14]
//	Backward: grad_c[8,16,14,14] → grad_a[1,16,1,1]
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	result := grad

	// Broadcasting aligns shapes from the right: extra leading dimensions
	// are summed away first.
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Then sum along every dimension the target held as size 1.
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = backend.SumDim(result, d, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// broadcastTo expands grad to the target shape by adding it to a zero tensor
// of that shape, reusing the backend's broadcasting rules.
func broadcastTo(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}
	zeros, err := tensor.NewRaw(targetShape, grad.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("broadcastTo: %v", err))
	}
	return backend.Add(zeros, grad)
}

// restoreDim reinserts a reduced dimension of size 1 so the gradient can be
// broadcast back over the input shape.
func restoreDim(grad *tensor.RawTensor, inputShape tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	if keepDim {
		return grad
	}
	withDim := inputShape.Clone()
	withDim[dim] = 1
	return backend.Reshape(grad, withDim)
}

// negateGradient returns -grad.
func negateGradient(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad, -1)
}
