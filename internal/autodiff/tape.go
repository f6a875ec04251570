package autodiff

import (
	"github.com/lucko515/residual-network/internal/autodiff/ops"
	"github.com/lucko515/residual-network/internal/tensor"
)

// GradientTape records operations during the forward pass and replays them
// in reverse to compute gradients.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... forward pass ...
//	grads := tape.Backward(outputGrad, backend)
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record appends an operation if the tape is recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear removes all recorded operations. The recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward walks the tape in reverse, propagating outputGrad through every
// recorded operation and accumulating gradients for tensors used more than
// once. Returns a map from forward-pass tensor to its gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Gradient computations must not end up on the tape themselves.
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	lastOp := t.operations[len(t.operations)-1]
	grads[lastOp.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		upstream, ok := grads[op.Output()]
		if !ok {
			// No gradient flows through this operation.
			continue
		}

		inputGrads := op.Backward(upstream, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, exists := grads[input]; exists {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}
	return grads
}
