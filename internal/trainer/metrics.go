package trainer

import "time"

// Window accumulates per-batch measurements across one epoch.
type Window struct {
	samples  int
	compute  time.Duration
	steps    int
	lastLoss float64
}

// Record adds one batch measurement to the window.
func (w *Window) Record(batchSize int, computeTime time.Duration, loss float64) {
	w.samples += batchSize
	w.compute += computeTime
	w.steps++
	w.lastLoss = loss
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{LastLoss: w.lastLoss}
	if w.compute > 0 {
		snap.ImagesPerSec = float64(w.samples) / w.compute.Seconds()
	}
	if w.steps > 0 {
		snap.AvgBatchMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}

	w.samples = 0
	w.compute = 0
	w.steps = 0
	return snap
}

// Snapshot represents loggable throughput metrics.
type Snapshot struct {
	ImagesPerSec float64
	AvgBatchMS   float64
	LastLoss     float64
}
