package cpu

import (
	"fmt"
	"math"

	"github.com/lucko515/residual-network/internal/tensor"
)

// MaxPool2D performs max pooling over NCHW input.
//
// Output shape: [N, C, (H-kernelSize)/stride + 1, (W-kernelSize)/stride + 1].
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: input must be 4D [N,C,H,W], got %dD", len(shape)))
	}
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s (only float32 supported)", input.DType()))
	}

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid output dimensions %dx%d (check kernel/stride)", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, c, hOut, wOut}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: %v", err))
	}

	src := input.AsFloat32()
	dst := output.AsFloat32()

	for batch := 0; batch < n; batch++ {
		for ch := 0; ch < c; ch++ {
			plane := src[(batch*c+ch)*h*w : (batch*c+ch+1)*h*w]
			outPlane := dst[(batch*c+ch)*hOut*wOut : (batch*c+ch+1)*hOut*wOut]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					maxVal := float32(math.Inf(-1))
					for i := 0; i < kernelSize; i++ {
						for j := 0; j < kernelSize; j++ {
							v := plane[(outH*stride+i)*w+outW*stride+j]
							if v > maxVal {
								maxVal = v
							}
						}
					}
					outPlane[outH*wOut+outW] = maxVal
				}
			}
		}
	}
	return output
}

// MaxPool2DBackward routes each output gradient to the input position that
// won the corresponding pooling window. Ties go to the first maximum in scan
// order, matching MaxPool2D.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	shape := input.Shape()
	gradShape := grad.Shape()

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hOut, wOut := gradShape[2], gradShape[3]

	inputGrad, err := tensor.NewRaw(shape.Clone(), tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxpool2d backward: %v", err))
	}

	src := input.AsFloat32()
	gradData := grad.AsFloat32()
	dst := inputGrad.AsFloat32()

	for batch := 0; batch < n; batch++ {
		for ch := 0; ch < c; ch++ {
			plane := src[(batch*c+ch)*h*w : (batch*c+ch+1)*h*w]
			gradPlane := gradData[(batch*c+ch)*hOut*wOut : (batch*c+ch+1)*hOut*wOut]
			dstPlane := dst[(batch*c+ch)*h*w : (batch*c+ch+1)*h*w]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					maxIdx := (outH*stride)*w + outW*stride
					maxVal := plane[maxIdx]
					for i := 0; i < kernelSize; i++ {
						for j := 0; j < kernelSize; j++ {
							idx := (outH*stride+i)*w + outW*stride + j
							if plane[idx] > maxVal {
								maxVal = plane[idx]
								maxIdx = idx
							}
						}
					}
					dstPlane[maxIdx] += gradPlane[outH*wOut+outW]
				}
			}
		}
	}
	return inputGrad
}
