package cpu

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// SumDim sums tensor elements along the specified dimension.
//
// dim supports negative indexing (-1 = last dimension). With keepDim the
// reduced axis is retained with size 1, otherwise it is removed.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sumdim: unsupported dtype %s (only float32 supported)", x.DType()))
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, ndim-1)
		for i, d := range shape {
			if i != dim {
				outShape = append(outShape, d)
			}
		}
		if len(outShape) == 0 {
			outShape = tensor.Shape{1}
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sumdim: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()

	strides := shape.ComputeStrides()
	reducedShape := shape.Clone()
	reducedShape[dim] = 1
	outStrides := reducedShape.ComputeStrides()

	for i := range src {
		outIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / strides[d]
			rem %= strides[d]
			if d != dim {
				outIdx += coord * outStrides[d]
			}
		}
		dst[outIdx] += src[i]
	}
	return result
}

// MeanDim computes the mean of tensor elements along the specified dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := cpu.SumDim(x, dim, keepDim)

	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	divisor := float32(shape[dim])

	data := result.AsFloat32()
	for i := range data {
		data[i] /= divisor
	}
	return result
}
