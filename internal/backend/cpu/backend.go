// Package cpu implements the tensor.Backend interface with pure Go kernels.
//
// All operations are single-threaded reference implementations working on
// float32 data. Results are always freshly allocated; inputs are never
// modified, which keeps the backend safe to wrap with the autodiff decorator.
package cpu

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// CPUBackend executes tensor operations on the host CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend identifier.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the device this backend computes on.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float32) float32 { return x / y })
}

// binaryOp applies op element-wise, broadcasting the operands if needed.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtypes %s, %s (only float32 supported)", name, a.DType(), b.DType()))
	}

	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	out := result.AsFloat32()

	// Fast path: identical shapes need no index arithmetic.
	if a.Shape().Equal(b.Shape()) {
		for i := range out {
			out[i] = op(aData[i], bData[i])
		}
		return result
	}

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range out {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		out[i] = op(aData[aIdx], bData[bIdx])
	}
	return result
}

// broadcastStrides computes strides for indexing src as if it had the
// broadcast target shape: broadcast dimensions get stride 0 so every target
// coordinate maps onto the single source element.
func broadcastStrides(src, target tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(target))
	offset := len(target) - len(src)
	for d := range target {
		srcDim := d - offset
		if srcDim < 0 || src[srcDim] == 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[srcDim]
		}
	}
	return strides
}

// Reshape returns a tensor with the same data and a new shape.
// Panics if the element counts differ.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if t.NumElements() != shape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), shape, shape.NumElements()))
	}
	result, err := tensor.NewRaw(shape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions. With no axes given all
// dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes permutation %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("transpose: unsupported dtype %s (only float32 supported)", t.DType()))
	}

	src := t.AsFloat32()
	dst := result.AsFloat32()
	srcStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		srcIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * srcStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
	return result
}
