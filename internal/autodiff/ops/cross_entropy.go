package ops

import (
	"fmt"
	"math"

	"github.com/lucko515/residual-network/internal/tensor"
)

// CrossEntropyOp records the fused softmax + cross-entropy loss.
//
// Forward:
//
//	loss = mean(-log_softmax(logits)[targets])
//
// log_softmax uses the log-sum-exp trick for numerical stability:
//
//	log_softmax(z) = z - (max(z) + log(Σ exp(z - max(z))))
//
// Backward:
//
//	∂loss/∂logits = (softmax(logits) - y_one_hot) / batch_size
//
// The closed-form gradient is why softmax and cross-entropy are fused.
// Targets are class indices and receive no gradient.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch_size, num_classes] float32
	targets *tensor.RawTensor // [batch_size] int32
	output  *tensor.RawTensor // [1] mean loss
}

// NewCrossEntropyOp creates a cross-entropy operation.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns the differentiable inputs (logits only).
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the output tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes (softmax - one_hot)/batch_size scaled by the upstream
// gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logitsShape := op.logits.Shape()
	if len(logitsShape) != 2 {
		panic("cross entropy backward: logits must be 2D [batch_size, num_classes]")
	}
	batchSize := logitsShape[0]
	numClasses := logitsShape[1]

	logitsGrad, err := tensor.NewRaw(logitsShape.Clone(), tensor.Float32, op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross entropy backward: %v", err))
	}

	logitsData := op.logits.AsFloat32()
	targetsData := op.targets.AsInt32()
	gradData := logitsGrad.AsFloat32()
	gradScale := outputGrad.AsFloat32()[0]

	for b := 0; b < batchSize; b++ {
		probs := softmax(logitsData[b*numClasses : (b+1)*numClasses])
		target := int(targetsData[b])
		for i := 0; i < numClasses; i++ {
			g := probs[i]
			if i == target {
				g -= 1.0
			}
			gradData[b*numClasses+i] = gradScale * g / float32(batchSize)
		}
	}
	return []*tensor.RawTensor{logitsGrad}
}

// CrossEntropyForward computes the mean negative log-likelihood loss.
//
//	logits:  [batch_size, num_classes] float32
//	targets: [batch_size] int32 class indices
//
// Returns a single-element tensor holding the mean loss over the batch.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	logitsShape := logits.Shape()
	if len(logitsShape) != 2 {
		panic("cross entropy: logits must be 2D [batch_size, num_classes]")
	}
	targetsShape := targets.Shape()
	if len(targetsShape) != 1 || targetsShape[0] != logitsShape[0] {
		panic(fmt.Sprintf("cross entropy: targets shape %v does not match logits %v", targetsShape, logitsShape))
	}

	batchSize := logitsShape[0]
	numClasses := logitsShape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("cross entropy: %v", err))
	}

	logitsData := logits.AsFloat32()
	targetsData := targets.AsInt32()

	var totalLoss float32
	for b := 0; b < batchSize; b++ {
		logProbs := logSoftmax(logitsData[b*numClasses : (b+1)*numClasses])
		target := int(targetsData[b])
		if target < 0 || target >= numClasses {
			panic(fmt.Sprintf("cross entropy: target index %d out of range [0, %d)", target, numClasses))
		}
		totalLoss += -logProbs[target]
	}
	output.AsFloat32()[0] = totalLoss / float32(batchSize)
	return output
}

// softmax computes stable softmax probabilities for a single sample.
func softmax(logits []float32) []float32 {
	probs := make([]float32, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sumExp float32
	for i, v := range logits {
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sumExp += probs[i]
	}
	for i := range probs {
		probs[i] /= sumExp
	}
	return probs
}

// logSoftmax computes stable log-softmax values for a single sample.
func logSoftmax(logits []float32) []float32 {
	result := make([]float32, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sumExp float32
	for _, v := range logits {
		sumExp += float32(math.Exp(float64(v - maxVal)))
	}
	logSumExp := maxVal + float32(math.Log(float64(sumExp)))

	for i, v := range logits {
		result[i] = v - logSumExp
	}
	return result
}
