package autodiff

import (
	"math"
	"testing"

	"github.com/lucko515/residual-network/internal/backend/cpu"
	"github.com/lucko515/residual-network/internal/tensor"
)

type testBackend = *AutodiffBackend[*cpu.CPUBackend]

func newTestBackend() testBackend {
	b := New(cpu.New())
	b.Tape().StartRecording()
	return b
}

func fromSlice(t *testing.T, data []float32, shape tensor.Shape, b testBackend) *tensor.Tensor[float32, testBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func assertClose(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Errorf("element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestAddBackward(t *testing.T) {
	b := newTestBackend()
	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2}, b)
	y := fromSlice(t, []float32{3, 4}, tensor.Shape{2}, b)
	z := x.Add(y)

	grads := Backward(z, b)
	assertClose(t, grads[x.Raw()].AsFloat32(), []float32{1, 1}, 1e-6)
	assertClose(t, grads[y.Raw()].AsFloat32(), []float32{1, 1}, 1e-6)
}

func TestMulBackwardFanOut(t *testing.T) {
	b := newTestBackend()
	// y = x * x, dy/dx = 2x: the tape must accumulate both branches.
	x := fromSlice(t, []float32{2, 3}, tensor.Shape{2}, b)
	y := x.Mul(x)

	grads := Backward(y, b)
	assertClose(t, grads[x.Raw()].AsFloat32(), []float32{4, 6}, 1e-6)
}

func TestBroadcastAddBackwardReduces(t *testing.T) {
	b := newTestBackend()
	// bias [1, 3] broadcast over [2, 3]: its gradient sums the batch dim.
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	bias := fromSlice(t, []float32{0, 0, 0}, tensor.Shape{1, 3}, b)
	z := x.Add(bias)

	grads := Backward(z, b)
	biasGrad := grads[bias.Raw()]
	if !biasGrad.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("bias grad shape = %v, want [1 3]", biasGrad.Shape())
	}
	assertClose(t, biasGrad.AsFloat32(), []float32{2, 2, 2}, 1e-6)
}

func TestMatMulBackward(t *testing.T) {
	b := newTestBackend()
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	w := fromSlice(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2}, b)
	y := x.MatMul(w)

	grads := Backward(y, b)
	// With upstream grad of ones: dL/dx = ones @ wᵀ, dL/dw = xᵀ @ ones.
	assertClose(t, grads[x.Raw()].AsFloat32(), []float32{11, 15, 11, 15}, 1e-6)
	assertClose(t, grads[w.Raw()].AsFloat32(), []float32{4, 4, 6, 6}, 1e-6)
}

func TestReLUBackwardMasks(t *testing.T) {
	b := newTestBackend()
	x := fromSlice(t, []float32{-1, 2, -3, 4}, tensor.Shape{4}, b)
	y := tensor.New[float32](b.ReLU(x.Raw()), b)

	assertClose(t, y.Data(), []float32{0, 2, 0, 4}, 1e-6)

	grads := Backward(y, b)
	assertClose(t, grads[x.Raw()].AsFloat32(), []float32{0, 1, 0, 1}, 1e-6)
}

func TestMeanDimBackwardSpreads(t *testing.T) {
	b := newTestBackend()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	y := x.MeanDim(1, true)

	grads := Backward(y, b)
	third := float32(1.0 / 3.0)
	assertClose(t, grads[x.Raw()].AsFloat32(), []float32{third, third, third, third, third, third}, 1e-6)
}

func TestCrossEntropyForwardAndBackward(t *testing.T) {
	b := newTestBackend()
	logits := fromSlice(t, []float32{2, 0, 0, 0, 3, 0}, tensor.Shape{2, 3}, b)
	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	loss := tensor.New[float32](b.CrossEntropy(logits.Raw(), targets.Raw()), b)
	if loss.NumElements() != 1 {
		t.Fatalf("loss shape = %v, want single element", loss.Shape())
	}
	// Confidently correct predictions give a small loss.
	if loss.Item() <= 0 || loss.Item() > 0.5 {
		t.Errorf("loss = %f, want in (0, 0.5]", loss.Item())
	}

	grads := Backward(loss, b)
	logitsGrad := grads[logits.Raw()]
	if !logitsGrad.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("logits grad shape = %v, want [2 3]", logitsGrad.Shape())
	}
	// Each row of (softmax - one_hot)/batch sums to zero.
	data := logitsGrad.AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += data[row*3+c]
		}
		if math.Abs(float64(sum)) > 1e-5 {
			t.Errorf("row %d gradient sum = %f, want 0", row, sum)
		}
	}

	if _, hasTargetGrad := grads[targets.Raw()]; hasTargetGrad {
		t.Error("targets must not receive a gradient")
	}
}

func TestTapeClearAndRecordingControl(t *testing.T) {
	b := newTestBackend()
	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2}, b)
	x.Add(x)
	if b.Tape().NumOps() != 1 {
		t.Fatalf("NumOps = %d, want 1", b.Tape().NumOps())
	}

	b.Tape().Clear()
	if b.Tape().NumOps() != 0 {
		t.Errorf("NumOps after Clear = %d, want 0", b.Tape().NumOps())
	}

	b.Tape().StopRecording()
	x.Add(x)
	if b.Tape().NumOps() != 0 {
		t.Errorf("operation recorded while stopped")
	}
}
