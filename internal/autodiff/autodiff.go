// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// AutodiffBackend wraps any tensor.Backend and records every operation on a
// GradientTape during the forward pass. Walking the tape in reverse applies
// the chain rule and yields a gradient for every recorded input.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	// ... forward pass, loss ...
//	grads := backend.Tape().Backward(lossGrad, backend)
package autodiff

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/autodiff/ops"
	"github.com/lucko515/residual-network/internal/tensor"
)

// AutodiffBackend decorates a Backend with gradient tracking. It implements
// tensor.Backend itself, so tensors built on it transparently record their
// operations.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates an AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for recording control and backward passes.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, result))
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, result))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewMatMulOp(x, y, result))
	return result
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	result := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record(ops.NewConv2DOp(input, kernel, result, stride, padding))
	return result
}

// Conv2DInputBackward delegates to the inner backend. Gradient kernels are
// not differentiated further.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward delegates to the inner backend.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool2D performs max pooling and records the operation.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	result := b.inner.MaxPool2D(input, kernelSize, stride)
	b.tape.Record(ops.NewMaxPool2DOp(input, result, kernelSize, stride))
	return result
}

// MaxPool2DBackward delegates to the inner backend.
func (b *AutodiffBackend[B]) MaxPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, grad, kernelSize, stride)
}

// Reshape reshapes a tensor and records the operation. Recording matters:
// without it, gradients would stop at every reshaped parameter view.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, shape)
	b.tape.Record(ops.NewReshapeOp(t, result))
	return result
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	// Resolve the default permutation here so the recorded op can invert it.
	if len(axes) == 0 {
		ndim := len(t.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	result := b.inner.Transpose(t, axes...)
	b.tape.Record(ops.NewTransposeOp(t, result, axes))
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(t *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := b.inner.AddScalar(t, scalar)
	b.tape.Record(ops.NewAddScalarOp(t, result))
	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(t *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := b.inner.MulScalar(t, scalar)
	b.tape.Record(ops.NewMulScalarOp(t, result, scalar))
	return result
}

// Sqrt computes the element-wise square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sqrt(t)
	b.tape.Record(ops.NewSqrtOp(t, result))
	return result
}

// Rsqrt computes the reciprocal square root and records the operation.
func (b *AutodiffBackend[B]) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Rsqrt(t)
	b.tape.Record(ops.NewRsqrtOp(t, result))
	return result
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.SumDim(t, dim, keepDim)
	b.tape.Record(ops.NewSumDimOp(t, result, normalizeDim(dim, len(t.Shape())), keepDim))
	return result
}

// MeanDim averages along a dimension and records the operation.
func (b *AutodiffBackend[B]) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.MeanDim(t, dim, keepDim)
	b.tape.Record(ops.NewMeanDimOp(t, result, normalizeDim(dim, len(t.Shape())), keepDim))
	return result
}

// ReLU computes max(x, 0) and records the operation. This is an extension
// beyond the Backend interface, discovered by interface assertion in the nn
// layer code.
func (b *AutodiffBackend[B]) ReLU(t *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(t.Shape().Clone(), tensor.Float32, b.Device())
	if err != nil {
		panic(fmt.Sprintf("relu: %v", err))
	}
	src := t.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
	b.tape.Record(ops.NewReLUOp(t, result))
	return result
}

// CrossEntropy computes the fused softmax cross-entropy loss and records the
// operation. Targets are int32 class indices and receive no gradient.
func (b *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	result := ops.CrossEntropyForward(logits, targets, b.Device())
	b.tape.Record(ops.NewCrossEntropyOp(logits, targets, result))
	return result
}

func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	return dim
}
