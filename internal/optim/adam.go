package optim

import (
	"math"

	"github.com/lucko515/residual-network/internal/tensor"
)

// AdamConfig holds the Adam hyperparameters.
type AdamConfig struct {
	LR    float32
	Beta1 float32
	Beta2 float32
	Eps   float32
}

// DefaultAdamConfig returns the standard Adam settings (lr 0.001,
// betas 0.9/0.999, eps 1e-8).
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{LR: 0.001, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

// Adam implements the Adam optimizer with bias-corrected first and second
// moment estimates:
//
//	m = beta1*m + (1-beta1)*grad
//	v = beta2*v + (1-beta2)*grad²
//	p = p - lr * m_hat / (sqrt(v_hat) + eps)
type Adam struct {
	params []*tensor.RawTensor
	cfg    AdamConfig
	t      int
	m      map[*tensor.RawTensor][]float32
	v      map[*tensor.RawTensor][]float32
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam(params []*tensor.RawTensor, cfg AdamConfig) *Adam {
	return &Adam{
		params: params,
		cfg:    cfg,
		m:      make(map[*tensor.RawTensor][]float32),
		v:      make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies one Adam update.
func (a *Adam) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	biasCorr1 := 1 - float32(math.Pow(float64(a.cfg.Beta1), float64(a.t)))
	biasCorr2 := 1 - float32(math.Pow(float64(a.cfg.Beta2), float64(a.t)))

	for _, p := range a.params {
		grad, ok := grads[p]
		if !ok {
			continue
		}

		data := p.AsFloat32()
		gradData := grad.AsFloat32()

		m, ok := a.m[p]
		if !ok {
			m = make([]float32, len(data))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float32, len(data))
			a.v[p] = v
		}

		for i := range data {
			g := gradData[i]
			m[i] = a.cfg.Beta1*m[i] + (1-a.cfg.Beta1)*g
			v[i] = a.cfg.Beta2*v[i] + (1-a.cfg.Beta2)*g*g

			mHat := m[i] / biasCorr1
			vHat := v[i] / biasCorr2
			data[i] -= a.cfg.LR * mHat / (float32(math.Sqrt(float64(vHat))) + a.cfg.Eps)
		}
	}
}

// LR returns the learning rate.
func (a *Adam) LR() float32 {
	return a.cfg.LR
}
