package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucko515/residual-network/internal/backend/cpu"
	"github.com/lucko515/residual-network/internal/tensor"
)

func TestLinearForwardShape(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 3, backend)

	input := tensor.Zeros[float32](tensor.Shape{2, 4}, backend)
	out := layer.Forward(input)

	assert.True(t, out.Shape().Equal(tensor.Shape{2, 3}), "output shape %v", out.Shape())
	assert.Len(t, layer.Parameters(), 2)
}

func TestLinearKnownValues(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(2, 2, backend)

	// Overwrite the random init with known weights.
	copy(layer.weight.Tensor().Data(), []float32{1, 2, 3, 4})
	copy(layer.bias.Tensor().Data(), []float32{10, 20})

	input, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	out := layer.Forward(input)
	assert.InDelta(t, 13.0, float64(out.At(0, 0)), 1e-5)
	assert.InDelta(t, 27.0, float64(out.At(0, 1)), 1e-5)
}

func TestConv2DForwardShape(t *testing.T) {
	backend := cpu.New()

	// 3x3 stride 1 pad 1 preserves the spatial size.
	same := NewConv2D(1, 16, 3, 1, 1, false, backend)
	out := same.Forward(tensor.Zeros[float32](tensor.Shape{2, 1, 28, 28}, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 16, 28, 28}), "shape %v", out.Shape())

	// 3x3 stride 2 pad 1 halves it.
	down := NewConv2D(16, 32, 3, 2, 1, false, backend)
	out = down.Forward(tensor.Zeros[float32](tensor.Shape{2, 16, 28, 28}, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 32, 14, 14}), "shape %v", out.Shape())

	assert.Equal(t, 14, down.OutputSize(28))
}

func TestConv2DBias(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(1, 2, 1, 1, 0, true, backend)
	require.Len(t, conv.Parameters(), 2)

	copy(conv.weight.Tensor().Data(), []float32{0, 0})
	copy(conv.bias.Tensor().Data(), []float32{1.5, -2.5})

	out := conv.Forward(tensor.Zeros[float32](tensor.Shape{1, 1, 2, 2}, backend))
	data := out.Data()
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1.5, float64(data[i]), 1e-6)
		assert.InDelta(t, -2.5, float64(data[4+i]), 1e-6)
	}
}

func TestBatchNorm2dNormalizesBatch(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d[*cpu.CPUBackend](2, backend)

	input, err := tensor.FromSlice([]float32{
		1, 2, 3, 4, // channel 0
		10, 20, 30, 40, // channel 1
	}, tensor.Shape{1, 2, 2, 2}, backend)
	require.NoError(t, err)

	out := bn.Forward(input)
	data := out.Data()

	// With gamma = 1 and beta = 0 each channel is standardized.
	for c := 0; c < 2; c++ {
		var mean float64
		for i := 0; i < 4; i++ {
			mean += float64(data[c*4+i])
		}
		mean /= 4
		assert.InDelta(t, 0.0, mean, 1e-4, "channel %d mean", c)

		var variance float64
		for i := 0; i < 4; i++ {
			d := float64(data[c*4+i]) - mean
			variance += d * d
		}
		variance /= 4
		assert.InDelta(t, 1.0, variance, 1e-2, "channel %d variance", c)
	}
}

func TestBatchNorm2dRunningStats(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d[*cpu.CPUBackend](1, backend)

	input, err := tensor.FromSlice([]float32{2, 2, 2, 2}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)
	bn.Forward(input)

	mean, variance := bn.RunningStats()
	// momentum 0.1: running mean moves from 0 toward 2, variance from 1 toward 0.
	assert.InDelta(t, 0.2, float64(mean.Data()[0]), 1e-5)
	assert.InDelta(t, 0.9, float64(variance.Data()[0]), 1e-5)
}

func TestBatchNorm2dEvalUsesRunningStats(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d[*cpu.CPUBackend](1, backend)
	bn.SetTraining(false)

	// Fresh layer: running mean 0, running var 1, so eval mode is almost
	// the identity.
	input, err := tensor.FromSlice([]float32{1, -1, 2, -2}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	out := bn.Forward(input)
	for i, v := range out.Data() {
		assert.InDelta(t, float64(input.Data()[i]), float64(v), 1e-4)
	}
}

func TestGlobalAvgPool2D(t *testing.T) {
	backend := cpu.New()
	pool := NewGlobalAvgPool2D[*cpu.CPUBackend](backend)

	input, err := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	}, tensor.Shape{1, 2, 2, 2}, backend)
	require.NoError(t, err)

	out := pool.Forward(input)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 2}), "shape %v", out.Shape())
	assert.InDelta(t, 2.5, float64(out.At(0, 0)), 1e-5)
	assert.InDelta(t, 25.0, float64(out.At(0, 1)), 1e-5)
}

func TestSequentialChainsModules(t *testing.T) {
	backend := cpu.New()
	model := NewSequential[*cpu.CPUBackend](
		NewLinear(4, 8, backend),
		NewReLU[*cpu.CPUBackend](backend),
		NewLinear(8, 2, backend),
	)

	out := model.Forward(tensor.Zeros[float32](tensor.Shape{3, 4}, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{3, 2}), "shape %v", out.Shape())
	assert.Len(t, model.Parameters(), 4)
	assert.Equal(t, 3, model.Len())
}

func TestAccuracy(t *testing.T) {
	backend := cpu.New()
	logits, err := tensor.FromSlice([]float32{
		0.9, 0.1, 0.0, // predicts 0
		0.1, 0.2, 0.7, // predicts 2
		0.3, 0.5, 0.2, // predicts 1
		0.8, 0.1, 0.1, // predicts 0
	}, tensor.Shape{4, 3}, backend)
	require.NoError(t, err)

	targets, err := tensor.FromSlice([]int32{0, 2, 2, 0}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, float64(Accuracy(logits, targets)), 1e-6)
}

func TestHeNormalSpread(t *testing.T) {
	backend := cpu.New()
	fanIn := 144
	w := HeNormal(fanIn, tensor.Shape{16, 16, 3, 3}, backend)

	var sum, sumSq float64
	data := w.Data()
	for _, v := range data {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(len(data))
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	wantStd := math.Sqrt(2.0 / float64(fanIn))
	assert.InDelta(t, 0.0, mean, 0.02)
	assert.InDelta(t, wantStd, std, wantStd*0.25)
}
