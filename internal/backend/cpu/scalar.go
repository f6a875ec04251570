package cpu

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(t *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp("addscalar", t, func(x float32) float32 { return x + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(t *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp("mulscalar", t, func(x float32) float32 { return x * scalar })
}

// unaryOp applies op element-wise into a fresh tensor.
func (cpu *CPUBackend) unaryOp(name string, t *tensor.RawTensor, op func(x float32) float32) *tensor.RawTensor {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, t.DType()))
	}
	result, err := tensor.NewRaw(t.Shape().Clone(), tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	src := t.AsFloat32()
	dst := result.AsFloat32()
	for i := range dst {
		dst[i] = op(src[i])
	}
	return result
}
