package cpu

import (
	"math"

	"github.com/lucko515/residual-network/internal/tensor"
)

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", t, func(x float32) float32 {
		return float32(math.Sqrt(float64(x)))
	})
}

// Rsqrt computes the element-wise reciprocal square root (1/sqrt(x)).
func (cpu *CPUBackend) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", t, func(x float32) float32 {
		return float32(1.0 / math.Sqrt(float64(x)))
	})
}
