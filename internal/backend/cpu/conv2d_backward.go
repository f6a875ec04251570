package cpu

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// Conv2DInputBackward computes the gradient of Conv2D with respect to its
// input (transposed convolution): every output gradient value is scattered
// back to the input positions its receptive field covered, weighted by the
// kernel.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]
	hOut := gradShape[2]
	wOut := gradShape[3]

	inputGrad, err := tensor.NewRaw(inputShape.Clone(), tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d input backward: %v", err))
	}

	inputGradData := inputGrad.AsFloat32()
	gradData := grad.AsFloat32()
	kernelData := kernel.AsFloat32()

	for batch := 0; batch < n; batch++ {
		gradBatch := gradData[batch*cOut*hOut*wOut : (batch+1)*cOut*hOut*wOut]
		inputGradBatch := inputGradData[batch*cIn*h*w : (batch+1)*cIn*h*w]

		for outChan := 0; outChan < cOut; outChan++ {
			kernelCOut := kernelData[outChan*cIn*kh*kw : (outChan+1)*cIn*kh*kw]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					gradVal := gradBatch[outChan*hOut*wOut+outH*wOut+outW]
					if gradVal == 0 {
						continue
					}

					for inChan := 0; inChan < cIn; inChan++ {
						inputGradCIn := inputGradBatch[inChan*h*w : (inChan+1)*h*w]
						kernelCIn := kernelCOut[inChan*kh*kw : (inChan+1)*kh*kw]

						for i := 0; i < kh; i++ {
							for j := 0; j < kw; j++ {
								hPos := outH*stride - padding + i
								wPos := outW*stride - padding + j
								if hPos >= 0 && hPos < h && wPos >= 0 && wPos < w {
									inputGradCIn[hPos*w+wPos] += gradVal * kernelCIn[i*kw+j]
								}
							}
						}
					}
				}
			}
		}
	}
	return inputGrad
}

// Conv2DKernelBackward computes the gradient of Conv2D with respect to its
// kernel: each kernel weight accumulates input*gradOutput products over all
// batch samples and output positions that used it.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]
	hOut := gradShape[2]
	wOut := gradShape[3]

	kernelGrad, err := tensor.NewRaw(kernelShape.Clone(), tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d kernel backward: %v", err))
	}

	kernelGradData := kernelGrad.AsFloat32()
	gradData := grad.AsFloat32()
	inputData := input.AsFloat32()

	for outChan := 0; outChan < cOut; outChan++ {
		for inChan := 0; inChan < cIn; inChan++ {
			for i := 0; i < kh; i++ {
				for j := 0; j < kw; j++ {
					var sum float32

					for batch := 0; batch < n; batch++ {
						inputCIn := inputData[batch*cIn*h*w+inChan*h*w : batch*cIn*h*w+(inChan+1)*h*w]
						gradCOut := gradData[batch*cOut*hOut*wOut+outChan*hOut*wOut : batch*cOut*hOut*wOut+(outChan+1)*hOut*wOut]

						for outH := 0; outH < hOut; outH++ {
							for outW := 0; outW < wOut; outW++ {
								hPos := outH*stride - padding + i
								wPos := outW*stride - padding + j
								if hPos >= 0 && hPos < h && wPos >= 0 && wPos < w {
									sum += inputCIn[hPos*w+wPos] * gradCOut[outH*wOut+outW]
								}
							}
						}
					}

					kernelGradData[outChan*cIn*kh*kw+inChan*kh*kw+i*kw+j] = sum
				}
			}
		}
	}
	return kernelGrad
}
