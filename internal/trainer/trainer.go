// Package trainer runs the training and evaluation loops for digit
// classification models.
package trainer

import (
	"log"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lucko515/residual-network/internal/autodiff"
	"github.com/lucko515/residual-network/internal/mnist"
	"github.com/lucko515/residual-network/internal/nn"
	"github.com/lucko515/residual-network/internal/optim"
	"github.com/lucko515/residual-network/internal/tensor"
)

// Model is any trainable classifier producing logits from image batches.
type Model[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
	SetTraining(training bool)
}

// Config controls the training run.
type Config struct {
	Epochs    int
	BatchSize int
	LogEvery  int // batches between progress lines; 0 disables
}

// EpochStats holds the metrics of one completed epoch.
type EpochStats struct {
	Epoch    int
	Loss     float32
	TrainAcc float32
	ValLoss  float32
	ValAcc   float32
	Duration time.Duration
}

// Result summarizes a full training run.
type Result struct {
	Epochs       []EpochStats
	MeanEpochSec float64
	StdEpochSec  float64
}

// Trainer drives mini-batch gradient descent on a model.
type Trainer[B autodiff.BackwardCapable] struct {
	model   Model[B]
	loss    *nn.CrossEntropyLoss[B]
	opt     optim.Optimizer
	backend B
	rng     *rand.Rand
}

// New creates a trainer for the given model and optimizer.
func New[B autodiff.BackwardCapable](model Model[B], opt optim.Optimizer, backend B, seed int64) *Trainer[B] {
	return &Trainer[B]{
		model:   model,
		loss:    nn.NewCrossEntropyLoss(backend),
		opt:     opt,
		backend: backend,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Fit trains for cfg.Epochs epochs, evaluating on val after each one when
// val is non-nil.
func (t *Trainer[B]) Fit(train, val *mnist.Dataset, cfg Config) Result {
	tape := t.backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	result := Result{}
	epochSecs := make([]float64, 0, cfg.Epochs)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		start := time.Now()
		loss, acc := t.trainEpoch(train, cfg, epoch)
		stats := EpochStats{
			Epoch:    epoch,
			Loss:     loss,
			TrainAcc: acc,
			Duration: time.Since(start),
		}

		if val != nil {
			stats.ValLoss, stats.ValAcc = t.Evaluate(val, cfg.BatchSize)
		}

		log.Printf("epoch %d/%d: loss=%.4f train_acc=%.2f%% val_acc=%.2f%% (%.1fs)",
			epoch, cfg.Epochs, stats.Loss, stats.TrainAcc*100, stats.ValAcc*100,
			stats.Duration.Seconds())

		result.Epochs = append(result.Epochs, stats)
		epochSecs = append(epochSecs, stats.Duration.Seconds())
	}

	result.MeanEpochSec = stat.Mean(epochSecs, nil)
	if len(epochSecs) > 1 {
		result.StdEpochSec = stat.StdDev(epochSecs, nil)
	}
	return result
}

// trainEpoch runs one pass over the training data and returns the mean loss
// and accuracy across all samples.
func (t *Trainer[B]) trainEpoch(train *mnist.Dataset, cfg Config, epoch int) (float32, float32) {
	t.model.SetTraining(true)
	train.Shuffle(t.rng)
	batches := mnist.Batches(train, cfg.BatchSize, t.backend)

	tape := t.backend.Tape()
	var window Window
	var lossSum, accSum float64
	total := 0

	for i, batch := range batches {
		batchStart := time.Now()
		tape.Clear()

		logits := t.model.Forward(batch.Images)
		loss := t.loss.Forward(logits, batch.Labels)

		grads := autodiff.Backward(loss, t.backend)
		t.opt.Step(grads)

		lossVal := loss.Item()
		acc := nn.Accuracy(logits, batch.Labels)
		tape.Clear()

		lossSum += float64(lossVal) * float64(batch.Size)
		accSum += float64(acc) * float64(batch.Size)
		total += batch.Size
		window.Record(batch.Size, time.Since(batchStart), float64(lossVal))

		if cfg.LogEvery > 0 && (i+1)%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			log.Printf("epoch %d batch %d/%d: loss=%.4f %.0f img/s %.0fms/batch",
				epoch, i+1, len(batches), snap.LastLoss, snap.ImagesPerSec, snap.AvgBatchMS)
		}
	}

	return float32(lossSum / float64(total)), float32(accSum / float64(total))
}

// Evaluate computes the mean loss and accuracy over a dataset without
// updating the model or the tape.
func (t *Trainer[B]) Evaluate(ds *mnist.Dataset, batchSize int) (float32, float32) {
	tape := t.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	t.model.SetTraining(false)

	var lossSum, accSum float64
	total := 0
	for _, batch := range mnist.Batches(ds, batchSize, t.backend) {
		logits := t.model.Forward(batch.Images)
		loss := t.loss.Forward(logits, batch.Labels)

		lossSum += float64(loss.Item()) * float64(batch.Size)
		accSum += float64(nn.Accuracy(logits, batch.Labels)) * float64(batch.Size)
		total += batch.Size
	}
	if total == 0 {
		return 0, 0
	}
	return float32(lossSum / float64(total)), float32(accSum / float64(total))
}
