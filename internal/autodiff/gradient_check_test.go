package autodiff

import (
	"math"
	"testing"

	"github.com/lucko515/residual-network/internal/backend/cpu"
	"github.com/lucko515/residual-network/internal/tensor"
)

// numericalGradient perturbs each element of param and measures the loss
// difference with central differences.
func numericalGradient(param []float32, loss func() float32) []float32 {
	const h = 1e-3
	grad := make([]float32, len(param))
	for i := range param {
		orig := param[i]
		param[i] = orig + h
		plus := loss()
		param[i] = orig - h
		minus := loss()
		param[i] = orig
		grad[i] = (plus - minus) / (2 * h)
	}
	return grad
}

func sumAllElements(t *tensor.RawTensor) float32 {
	var sum float32
	for _, v := range t.AsFloat32() {
		sum += v
	}
	return sum
}

func TestConv2DGradientNumerical(t *testing.T) {
	raw := cpu.New()
	b := New(raw)

	xData := []float32{0.5, -0.2, 0.3, 0.8, -0.6, 0.1, 0.4, 0.9, -0.3}
	kData := []float32{0.2, -0.5, 0.7, 0.1}

	x, _ := tensor.FromSlice(xData, tensor.Shape{1, 1, 3, 3}, b)
	k, _ := tensor.FromSlice(kData, tensor.Shape{1, 1, 2, 2}, b)

	// loss = sum(conv2d(x, k)) computed without any tape involvement.
	loss := func() float32 {
		return sumAllElements(raw.Conv2D(x.Raw(), k.Raw(), 1, 0))
	}

	b.Tape().StartRecording()
	out := tensor.New[float32](b.Conv2D(x.Raw(), k.Raw(), 1, 0), b)
	grads := Backward(out, b)

	wantK := numericalGradient(k.Data(), loss)
	gotK := grads[k.Raw()].AsFloat32()
	for i := range wantK {
		if math.Abs(float64(gotK[i]-wantK[i])) > 1e-2 {
			t.Errorf("kernel grad %d: got %f, numerical %f", i, gotK[i], wantK[i])
		}
	}

	wantX := numericalGradient(x.Data(), loss)
	gotX := grads[x.Raw()].AsFloat32()
	for i := range wantX {
		if math.Abs(float64(gotX[i]-wantX[i])) > 1e-2 {
			t.Errorf("input grad %d: got %f, numerical %f", i, gotX[i], wantX[i])
		}
	}
}

func TestNormalizationChainGradientNumerical(t *testing.T) {
	raw := cpu.New()
	b := New(raw)

	xData := []float32{1.0, 2.0, 3.0, 4.0, 2.5, -1.5, 0.5, 1.5}

	x, _ := tensor.FromSlice(xData, tensor.Shape{2, 4}, b)

	// The batch-norm style chain: centered * rsqrt(var + eps).
	normalize := func(backend tensor.Backend, in *tensor.RawTensor) *tensor.RawTensor {
		mean := backend.MeanDim(in, 1, true)
		centered := backend.Sub(in, mean)
		variance := backend.MeanDim(backend.Mul(centered, centered), 1, true)
		invStd := backend.Rsqrt(backend.AddScalar(variance, 1e-5))
		return backend.Mul(centered, invStd)
	}

	loss := func() float32 {
		out := normalize(raw, x.Raw())
		// Weighted sum so the gradient is not identically zero.
		var sum float32
		for i, v := range out.AsFloat32() {
			sum += v * float32(i+1)
		}
		return sum
	}

	b.Tape().StartRecording()
	normalized := normalize(b, x.Raw())

	// Seed with the same weights the loss uses.
	seed, _ := tensor.NewRaw(normalized.Shape().Clone(), tensor.Float32, b.Device())
	for i := range seed.AsFloat32() {
		seed.AsFloat32()[i] = float32(i + 1)
	}
	grads := b.Tape().Backward(seed, b)

	want := numericalGradient(x.Data(), loss)
	got := grads[x.Raw()].AsFloat32()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 5e-2 {
			t.Errorf("grad %d: got %f, numerical %f", i, got[i], want[i])
		}
	}
}

func TestCrossEntropyGradientNumerical(t *testing.T) {
	raw := cpu.New()
	b := New(raw)

	logitsData := []float32{0.5, -0.3, 0.8, -0.1, 1.2, 0.3}
	logits, _ := tensor.FromSlice(logitsData, tensor.Shape{2, 3}, b)
	targets, _ := tensor.FromSlice([]int32{2, 1}, tensor.Shape{2}, b)

	loss := func() float32 {
		return crossEntropyScalar(logits.Raw(), targets.Raw())
	}

	b.Tape().StartRecording()
	out := tensor.New[float32](b.CrossEntropy(logits.Raw(), targets.Raw()), b)
	grads := Backward(out, b)

	want := numericalGradient(logits.Data(), loss)
	got := grads[logits.Raw()].AsFloat32()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-2 {
			t.Errorf("logits grad %d: got %f, numerical %f", i, got[i], want[i])
		}
	}
}

func crossEntropyScalar(logits, targets *tensor.RawTensor) float32 {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]
	data := logits.AsFloat32()
	idx := targets.AsInt32()

	var total float64
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logProb := float64(row[idx[b]]-maxVal) - math.Log(sumExp)
		total += -logProb
	}
	return float32(total / float64(batch))
}
