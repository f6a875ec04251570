package cpu

import "github.com/lucko515/residual-network/internal/tensor"

// ReLU computes max(x, 0) element-wise. This is an extension beyond the
// Backend interface, discovered through interface assertion by the nn layer.
func (cpu *CPUBackend) ReLU(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", t, func(x float32) float32 {
		if x > 0 {
			return x
		}
		return 0
	})
}
