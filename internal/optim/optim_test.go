package optim

import (
	"math"
	"testing"

	"github.com/lucko515/residual-network/internal/tensor"
)

func makeParam(t *testing.T, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestSGDStep(t *testing.T) {
	p := makeParam(t, []float32{1, 2, 3})
	g := makeParam(t, []float32{1, 1, 1})

	opt := NewSGD([]*tensor.RawTensor{p}, 0.1, 0)
	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{p: g})

	want := []float32{0.9, 1.9, 2.9}
	for i, v := range p.AsFloat32() {
		if math.Abs(float64(v-want[i])) > 1e-6 {
			t.Errorf("param %d = %f, want %f", i, v, want[i])
		}
	}
}

func TestSGDMomentumAccumulates(t *testing.T) {
	p := makeParam(t, []float32{0})
	g := makeParam(t, []float32{1})

	opt := NewSGD([]*tensor.RawTensor{p}, 1.0, 0.9)
	grads := map[*tensor.RawTensor]*tensor.RawTensor{p: g}

	opt.Step(grads) // v=1, p=-1
	opt.Step(grads) // v=1.9, p=-2.9

	got := p.AsFloat32()[0]
	if math.Abs(float64(got+2.9)) > 1e-5 {
		t.Errorf("param = %f, want -2.9", got)
	}
}

func TestSGDSkipsParamsWithoutGradient(t *testing.T) {
	p := makeParam(t, []float32{5})
	opt := NewSGD([]*tensor.RawTensor{p}, 0.1, 0)
	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if p.AsFloat32()[0] != 5 {
		t.Errorf("param changed without gradient: %f", p.AsFloat32()[0])
	}
}

func TestAdamFirstStepIsLRSized(t *testing.T) {
	p := makeParam(t, []float32{1})
	g := makeParam(t, []float32{0.5})

	opt := NewAdam([]*tensor.RawTensor{p}, DefaultAdamConfig())
	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{p: g})

	// With bias correction the very first update is almost exactly lr in the
	// gradient's direction regardless of its magnitude.
	got := p.AsFloat32()[0]
	if math.Abs(float64(got-(1-0.001))) > 1e-4 {
		t.Errorf("param after first step = %f, want ~0.999", got)
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	// Minimize f(x) = x² from x = 1; gradient is 2x.
	p := makeParam(t, []float32{1})
	g := makeParam(t, []float32{0})

	cfg := DefaultAdamConfig()
	cfg.LR = 0.05
	opt := NewAdam([]*tensor.RawTensor{p}, cfg)
	grads := map[*tensor.RawTensor]*tensor.RawTensor{p: g}

	for i := 0; i < 200; i++ {
		g.AsFloat32()[0] = 2 * p.AsFloat32()[0]
		opt.Step(grads)
	}

	if x := p.AsFloat32()[0]; math.Abs(float64(x)) > 0.05 {
		t.Errorf("x after 200 steps = %f, want ~0", x)
	}
}

func TestLRAccessors(t *testing.T) {
	p := makeParam(t, []float32{0})
	if lr := NewSGD([]*tensor.RawTensor{p}, 0.01, 0).LR(); lr != 0.01 {
		t.Errorf("SGD LR = %f, want 0.01", lr)
	}
	if lr := NewAdam([]*tensor.RawTensor{p}, DefaultAdamConfig()).LR(); lr != 0.001 {
		t.Errorf("Adam LR = %f, want 0.001", lr)
	}
}
