package cpu

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// Conv2D performs 2D cross-correlation using the im2col algorithm.
//
// Input shape: [N, C_in, H, W], kernel shape: [C_out, C_in, K_h, K_w],
// output shape: [N, C_out, H_out, W_out] with
//
//	H_out = (H + 2*padding - K_h)/stride + 1
//	W_out = (W + 2*padding - K_w)/stride + 1
//
// Im2col unrolls every input patch into a row of a column matrix, turning
// the convolution into a single matrix product with the flattened kernel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]

	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}
	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("conv2d: unsupported dtypes %s, %s (only float32 supported)", input.DType(), kernel.DType()))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	inputData := input.AsFloat32()
	kernelData := kernel.AsFloat32()
	outputData := output.AsFloat32()

	// colBuf rows are output positions, columns are kernel weights:
	// [N * H_out * W_out, C_in * K_h * K_w].
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]float32, colHeight*colWidth)
	im2col(colBuf, inputData, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	// The kernel is already laid out as [C_out, C_in*K_h*K_w] in row-major
	// order, so the product is a plain dot over colWidth. Each colBuf row
	// index decomposes as n*hOut*wOut + hw, which lets us write the result
	// directly into NCHW order.
	hw := hOut * wOut
	for c := 0; c < cOut; c++ {
		kRow := kernelData[c*colWidth : (c+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			col := colBuf[j*colWidth : (j+1)*colWidth]
			var sum float32
			for k := 0; k < colWidth; k++ {
				sum += kRow[k] * col[k]
			}
			batch := j / hw
			outputData[batch*cOut*hw+c*hw+j%hw] = sum
		}
	}
	return output
}

// im2col flattens every input patch into one row of colBuf, zero-filling
// positions that fall into the padding border.
func im2col(colBuf, inputData []float32, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	colIdx := 0

	for batch := 0; batch < n; batch++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							hPos := hStart + i
							wPos := wStart + j
							if hPos >= 0 && hPos < h && wPos >= 0 && wPos < w {
								colBuf[bufIdx] = inputData[batch*c*h*w+ch*h*w+hPos*w+wPos]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
