package nn

import (
	"fmt"

	"github.com/lucko515/residual-network/internal/tensor"
)

// CrossEntropyBackend is the extension interface for backends with a fused
// softmax + cross-entropy op.
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes the mean softmax cross-entropy between logits
// [batch, classes] and int32 class-index targets [batch].
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward returns the single-element mean loss tensor. Panics if the
// backend does not implement CrossEntropyBackend.
func (l *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	ceb, ok := any(l.backend).(CrossEntropyBackend)
	if !ok {
		panic(fmt.Sprintf("cross entropy: backend %s does not implement CrossEntropyBackend", l.backend.Name()))
	}
	return tensor.New[float32](ceb.CrossEntropy(logits.Raw(), targets.Raw()), l.backend)
}

// Accuracy computes the fraction of rows in logits [batch, classes] whose
// argmax matches the target class index. Runs entirely on the host.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float32 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("accuracy: expected 2D logits, got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if targets.NumElements() != batch {
		panic(fmt.Sprintf("accuracy: %d targets for batch of %d", targets.NumElements(), batch))
	}

	data := logits.Data()
	labels := targets.Data()

	correct := 0
	for b := 0; b < batch; b++ {
		if argmax(data[b*classes:(b+1)*classes]) == int(labels[b]) {
			correct++
		}
	}
	return float32(correct) / float32(batch)
}

// argmax returns the index of the largest value.
func argmax(values []float32) int {
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}
