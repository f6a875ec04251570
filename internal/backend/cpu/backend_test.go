package cpu

import (
	"math"
	"testing"

	"github.com/lucko515/residual-network/internal/tensor"
)

const eps = 1e-5

func fromSlice(t *testing.T, data []float32, shape tensor.Shape, b *CPUBackend) *tensor.Tensor[float32, *CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func assertClose(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > eps {
			t.Errorf("element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestAddSameShape(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	y := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2}, b)
	assertClose(t, x.Add(y).Data(), []float32{11, 22, 33, 44})
}

func TestAddBroadcast(t *testing.T) {
	b := New()
	// [2, 3] + [1, 3] broadcasts the row.
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	bias := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{1, 3}, b)
	got := x.Add(bias)
	if !got.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", got.Shape())
	}
	assertClose(t, got.Data(), []float32{11, 22, 33, 14, 25, 36})
}

func TestMulBroadcastChannel(t *testing.T) {
	b := New()
	// Per-channel scale [1, 2, 1, 1] over [1, 2, 2, 2], the BatchNorm pattern.
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{1, 2, 2, 2}, b)
	scale := fromSlice(t, []float32{2, 10}, tensor.Shape{1, 2, 1, 1}, b)
	assertClose(t, x.Mul(scale).Data(), []float32{2, 4, 6, 8, 50, 60, 70, 80})
}

func TestMatMul(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	y := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, b)
	got := x.MatMul(y)
	if !got.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", got.Shape())
	}
	assertClose(t, got.Data(), []float32{58, 64, 139, 154})
}

func TestTranspose2D(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	got := x.T()
	if !got.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", got.Shape())
	}
	assertClose(t, got.Data(), []float32{1, 4, 2, 5, 3, 6})
}

func TestConv2DIdentityKernel(t *testing.T) {
	b := New()
	// 1x1 kernel with weight 1 reproduces the input.
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, b)
	k := fromSlice(t, []float32{1}, tensor.Shape{1, 1, 1, 1}, b)
	got := b.Conv2D(x.Raw(), k.Raw(), 1, 0)
	assertClose(t, got.AsFloat32(), []float32{1, 2, 3, 4})
}

func TestConv2DKnownValues(t *testing.T) {
	b := New()
	// 3x3 input, 2x2 all-ones kernel, stride 1, no padding:
	// each output is the sum of a 2x2 window.
	x := fromSlice(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3}, b)
	k := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2}, b)

	got := b.Conv2D(x.Raw(), k.Raw(), 1, 0)
	if !got.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", got.Shape())
	}
	assertClose(t, got.AsFloat32(), []float32{12, 16, 24, 28})
}

func TestConv2DPaddingPreservesSize(t *testing.T) {
	b := New()
	x := fromSlice(t, make([]float32, 28*28), tensor.Shape{1, 1, 28, 28}, b)
	k := fromSlice(t, make([]float32, 9), tensor.Shape{1, 1, 3, 3}, b)

	same := b.Conv2D(x.Raw(), k.Raw(), 1, 1)
	if !same.Shape().Equal(tensor.Shape{1, 1, 28, 28}) {
		t.Errorf("stride 1 pad 1 shape = %v, want [1 1 28 28]", same.Shape())
	}

	half := b.Conv2D(x.Raw(), k.Raw(), 2, 1)
	if !half.Shape().Equal(tensor.Shape{1, 1, 14, 14}) {
		t.Errorf("stride 2 pad 1 shape = %v, want [1 1 14 14]", half.Shape())
	}
}

func TestConv2DStride2Downsamples(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4}, b)
	k := fromSlice(t, []float32{1}, tensor.Shape{1, 1, 1, 1}, b)

	got := b.Conv2D(x.Raw(), k.Raw(), 2, 0)
	if !got.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", got.Shape())
	}
	assertClose(t, got.AsFloat32(), []float32{1, 3, 9, 11})
}

func TestConv2DBackwardShapes(t *testing.T) {
	b := New()
	x := fromSlice(t, make([]float32, 2*3*8*8), tensor.Shape{2, 3, 8, 8}, b)
	k := fromSlice(t, make([]float32, 4*3*3*3), tensor.Shape{4, 3, 3, 3}, b)

	out := b.Conv2D(x.Raw(), k.Raw(), 2, 1)
	grad := fromSlice(t, make([]float32, out.NumElements()), out.Shape(), b)

	inputGrad := b.Conv2DInputBackward(x.Raw(), k.Raw(), grad.Raw(), 2, 1)
	if !inputGrad.Shape().Equal(x.Shape()) {
		t.Errorf("input grad shape = %v, want %v", inputGrad.Shape(), x.Shape())
	}
	kernelGrad := b.Conv2DKernelBackward(x.Raw(), k.Raw(), grad.Raw(), 2, 1)
	if !kernelGrad.Shape().Equal(k.Shape()) {
		t.Errorf("kernel grad shape = %v, want %v", kernelGrad.Shape(), k.Shape())
	}
}

func TestMaxPool2D(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 10, 13, 14,
		11, 12, 15, 16,
	}, tensor.Shape{1, 1, 4, 4}, b)

	got := b.MaxPool2D(x.Raw(), 2, 2)
	if !got.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", got.Shape())
	}
	assertClose(t, got.AsFloat32(), []float32{4, 8, 12, 16})
}

func TestMaxPool2DBackward(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2}, b)
	grad := fromSlice(t, []float32{5}, tensor.Shape{1, 1, 1, 1}, b)

	got := b.MaxPool2DBackward(x.Raw(), grad.Raw(), 2, 2)
	// Only the max position (value 4) receives the gradient.
	assertClose(t, got.AsFloat32(), []float32{0, 0, 0, 5})
}

func TestSumDim(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)

	rows := x.SumDim(1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("shape = %v, want [2]", rows.Shape())
	}
	assertClose(t, rows.Data(), []float32{6, 15})

	cols := x.SumDim(0, true)
	if !cols.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("shape = %v, want [1 3]", cols.Shape())
	}
	assertClose(t, cols.Data(), []float32{5, 7, 9})
}

func TestMeanDimNegativeIndex(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	got := x.MeanDim(-1, true)
	if !got.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("shape = %v, want [2 1]", got.Shape())
	}
	assertClose(t, got.Data(), []float32{2, 5})
}

func TestScalarAndMathOps(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 4, 9, 16}, tensor.Shape{4}, b)

	assertClose(t, x.AddScalar(1).Data(), []float32{2, 5, 10, 17})
	assertClose(t, x.MulScalar(0.5).Data(), []float32{0.5, 2, 4.5, 8})
	assertClose(t, x.Sqrt().Data(), []float32{1, 2, 3, 4})
	assertClose(t, x.Rsqrt().Data(), []float32{1, 0.5, 1.0 / 3.0, 0.25})
}

func TestReshape(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	got := x.Reshape(3, 2)
	if !got.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", got.Shape())
	}
	assertClose(t, got.Data(), []float32{1, 2, 3, 4, 5, 6})
}
