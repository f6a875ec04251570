package nn

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// BatchNorm2d normalizes each channel of NCHW input over the batch and
// spatial dimensions:
//
//	y = gamma * (x - mean) / sqrt(var + eps) + beta
//
// The normalization is built from composable tensor ops (MeanDim, Sub, Mul,
// AddScalar, Rsqrt), so when it runs on an autodiff backend every step lands
// on the tape and the backward pass needs no dedicated kernel.
//
// In training mode statistics come from the current batch and exponential
// running averages are maintained on the side; in eval mode the running
// averages are used instead.
type BatchNorm2d[B tensor.Backend] struct {
	gamma *Parameter[B]
	beta  *Parameter[B]

	// Running statistics, updated outside the autodiff graph. Shape [C].
	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]

	numFeatures int
	eps         float32
	momentum    float32
	training    bool
	backend     B
}

// NewBatchNorm2d creates a batch normalization layer for numFeatures
// channels with gamma = 1, beta = 0, eps = 1e-5 and running-average
// momentum 0.1. The layer starts in training mode.
func NewBatchNorm2d[B tensor.Backend](numFeatures int, backend B) *BatchNorm2d[B] {
	return &BatchNorm2d[B]{
		gamma:       NewParameter("batchnorm.gamma", Ones(tensor.Shape{numFeatures}, backend)),
		beta:        NewParameter("batchnorm.beta", Zeros(tensor.Shape{numFeatures}, backend)),
		runningMean: Zeros(tensor.Shape{numFeatures}, backend),
		runningVar:  Ones(tensor.Shape{numFeatures}, backend),
		numFeatures: numFeatures,
		eps:         1e-5,
		momentum:    0.1,
		training:    true,
		backend:     backend,
	}
}

// SetTraining switches between batch statistics (true) and running
// statistics (false).
func (bn *BatchNorm2d[B]) SetTraining(training bool) {
	bn.training = training
}

// Forward normalizes input [N, C, H, W] per channel.
func (bn *BatchNorm2d[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 || shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: expected input [N, %d, H, W], got %v", bn.numFeatures, shape))
	}

	var normalized *tensor.Tensor[float32, B]
	if bn.training {
		// Chained MeanDim over batch and spatial dims gives the per-channel
		// mean as [1, C, 1, 1], ready for broadcasting.
		mean := input.MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
		centered := input.Sub(mean)
		variance := centered.Mul(centered).MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
		invStd := variance.AddScalar(bn.eps).Rsqrt()
		normalized = centered.Mul(invStd)

		bn.updateRunningStats(mean, variance)
	} else {
		mean := bn.runningMean.Reshape(1, bn.numFeatures, 1, 1)
		invStd := bn.runningVar.Reshape(1, bn.numFeatures, 1, 1).AddScalar(bn.eps).Rsqrt()
		normalized = input.Sub(mean).Mul(invStd)
	}

	scaled := normalized.Mul(bn.gamma.Tensor().Reshape(1, bn.numFeatures, 1, 1))
	return scaled.Add(bn.beta.Tensor().Reshape(1, bn.numFeatures, 1, 1))
}

// updateRunningStats folds the batch statistics into the running averages.
// This happens on the raw values, outside any gradient tracking.
func (bn *BatchNorm2d[B]) updateRunningStats(mean, variance *tensor.Tensor[float32, B]) {
	meanData := mean.Data()
	varData := variance.Data()
	runMean := bn.runningMean.Data()
	runVar := bn.runningVar.Data()

	for c := 0; c < bn.numFeatures; c++ {
		runMean[c] = (1-bn.momentum)*runMean[c] + bn.momentum*meanData[c]
		runVar[c] = (1-bn.momentum)*runVar[c] + bn.momentum*varData[c]
	}
}

// Parameters returns gamma and beta. The running statistics are buffers,
// not learnable parameters.
func (bn *BatchNorm2d[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// RunningStats exposes the running mean and variance for inspection.
func (bn *BatchNorm2d[B]) RunningStats() (mean, variance *tensor.Tensor[float32, B]) {
	return bn.runningMean, bn.runningVar
}
