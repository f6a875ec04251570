// Package model assembles the full residual network for digit
// classification.
package model

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/nn"
	"github.com/lucko515/residual-network/internal/tensor"
)

// Stage widths of the network. Spatial size halves at every transition:
// 28x28 → 14x14 → 7x7 for MNIST input.
var stageWidths = [3]int{16, 32, 64}

// ResNet is a pre-activation residual network:
//
//	3x3 conv, 16 filters                 (stem)
//	n residual units, 16 filters         (28x28)
//	n residual units, 32 filters, s=2 in (14x14)
//	n residual units, 64 filters, s=2 in (7x7)
//	BN → ReLU → global avg pool → linear (logits)
//
// Total weighted depth is 6n+2 layers. The first unit of stages two and
// three downsamples with stride 2 and widens through a 1x1 projection
// shortcut; every other unit is a pure identity unit.
type ResNet[B tensor.Backend] struct {
	stem  *nn.Conv2D[B]
	units []*nn.ResidualUnit[B]

	bnFinal *nn.BatchNorm2d[B]
	relu    *nn.ReLU[B]
	pool    *nn.GlobalAvgPool2D[B]
	fc      *nn.Linear[B]

	unitsPerStage int
	numClasses    int
}

// NewResNet builds a network with unitsPerStage residual units in each of
// the three stages (depth 6*unitsPerStage+2) for single-channel input.
func NewResNet[B tensor.Backend](unitsPerStage, numClasses int, backend B) *ResNet[B] {
	if unitsPerStage < 1 {
		panic(fmt.Sprintf("resnet: unitsPerStage must be >= 1, got %d", unitsPerStage))
	}

	m := &ResNet[B]{
		stem:          nn.NewConv2D(1, stageWidths[0], 3, 1, 1, false, backend),
		bnFinal:       nn.NewBatchNorm2d(stageWidths[2], backend),
		relu:          nn.NewReLU(backend),
		pool:          nn.NewGlobalAvgPool2D(backend),
		fc:            nn.NewLinear(stageWidths[2], numClasses, backend),
		unitsPerStage: unitsPerStage,
		numClasses:    numClasses,
	}

	inChannels := stageWidths[0]
	for stage, width := range stageWidths {
		for i := 0; i < unitsPerStage; i++ {
			stride := 1
			// The first unit of stages two and three downsamples.
			if stage > 0 && i == 0 {
				stride = 2
			}
			m.units = append(m.units, nn.NewResidualUnit(inChannels, width, stride, backend))
			inChannels = width
		}
	}
	return m
}

// Forward computes logits [batch, numClasses] for input
// [batch, 1, 28, 28].
func (m *ResNet[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	h := m.stem.Forward(input)
	for _, unit := range m.units {
		h = unit.Forward(h)
	}
	h = m.relu.Forward(m.bnFinal.Forward(h))
	h = m.pool.Forward(h)
	return m.fc.Forward(h)
}

// Parameters returns every learnable parameter of the network.
func (m *ResNet[B]) Parameters() []*nn.Parameter[B] {
	params := m.stem.Parameters()
	for _, unit := range m.units {
		params = append(params, unit.Parameters()...)
	}
	params = append(params, m.bnFinal.Parameters()...)
	params = append(params, m.fc.Parameters()...)
	return params
}

// SetTraining switches every normalization layer between batch and running
// statistics.
func (m *ResNet[B]) SetTraining(training bool) {
	for _, unit := range m.units {
		unit.SetTraining(training)
	}
	m.bnFinal.SetTraining(training)
}

// Depth returns the number of weighted layers (6n+2).
func (m *ResNet[B]) Depth() int {
	return 6*m.unitsPerStage + 2
}

// NumUnits returns the number of residual units.
func (m *ResNet[B]) NumUnits() int {
	return len(m.units)
}

// CountParameters returns the total number of scalar parameters.
func (m *ResNet[B]) CountParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}
