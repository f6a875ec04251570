package nn

import "github.com/lucko515/residual-network/internal/tensor"

// ResidualUnit is a pre-activation residual block ("version b"):
//
//	h = BN → ReLU → 3x3 conv (stride s) → BN → ReLU → 3x3 conv
//	y = h + shortcut(x)
//
// Normalization and activation come before each convolution instead of
// after, which leaves the shortcut path free of any non-linearity: the
// identity signal flows through the whole network unchanged and gradients
// reach the early layers directly.
//
// When the unit preserves shape (stride 1, equal channel counts) the
// shortcut is the identity. When it downsamples or widens, the shortcut is a
// 1x1 projection convolution with the same stride, applied to the
// pre-activated input so the projection shares the first BN+ReLU.
//
// Both convolutions are bias-free: each is preceded (or, for the shortcut
// sum, followed in the next unit) by a BatchNorm whose shift subsumes the
// bias term.
type ResidualUnit[B tensor.Backend] struct {
	bn1   *BatchNorm2d[B]
	bn2   *BatchNorm2d[B]
	conv1 *Conv2D[B]
	conv2 *Conv2D[B]

	// project is nil for identity shortcuts.
	project *Conv2D[B]

	relu *ReLU[B]

	inChannels  int
	outChannels int
	stride      int
}

// NewResidualUnit creates a pre-activation residual unit. stride applies to
// the first convolution (and to the projection shortcut when one is needed).
func NewResidualUnit[B tensor.Backend](inChannels, outChannels, stride int, backend B) *ResidualUnit[B] {
	unit := &ResidualUnit[B]{
		bn1:         NewBatchNorm2d(inChannels, backend),
		bn2:         NewBatchNorm2d(outChannels, backend),
		conv1:       NewConv2D(inChannels, outChannels, 3, stride, 1, false, backend),
		conv2:       NewConv2D(outChannels, outChannels, 3, 1, 1, false, backend),
		relu:        NewReLU(backend),
		inChannels:  inChannels,
		outChannels: outChannels,
		stride:      stride,
	}
	if stride != 1 || inChannels != outChannels {
		unit.project = NewConv2D(inChannels, outChannels, 1, stride, 0, false, backend)
	}
	return unit
}

// Forward computes the residual function and adds the shortcut.
//
// Shapes for input [N, inC, H, W]:
//
//	preact:  [N, inC, H, W]
//	conv1:   [N, outC, H/s, W/s]
//	conv2:   [N, outC, H/s, W/s]
//	output:  [N, outC, H/s, W/s]
func (u *ResidualUnit[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	preact := u.relu.Forward(u.bn1.Forward(input))

	shortcut := input
	if u.project != nil {
		shortcut = u.project.Forward(preact)
	}

	h := u.conv1.Forward(preact)
	h = u.relu.Forward(u.bn2.Forward(h))
	h = u.conv2.Forward(h)

	return h.Add(shortcut)
}

// Parameters returns the parameters of both convolutions, both
// normalizations and the projection if present.
func (u *ResidualUnit[B]) Parameters() []*Parameter[B] {
	params := append(u.bn1.Parameters(), u.conv1.Parameters()...)
	params = append(params, u.bn2.Parameters()...)
	params = append(params, u.conv2.Parameters()...)
	if u.project != nil {
		params = append(params, u.project.Parameters()...)
	}
	return params
}

// SetTraining switches both normalization layers between batch and running
// statistics.
func (u *ResidualUnit[B]) SetTraining(training bool) {
	u.bn1.SetTraining(training)
	u.bn2.SetTraining(training)
}

// HasProjection reports whether the shortcut uses a 1x1 projection.
func (u *ResidualUnit[B]) HasProjection() bool {
	return u.project != nil
}
