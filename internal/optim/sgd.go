package optim

import "github.com/lucko515/residual-network/internal/tensor"

// SGD implements stochastic gradient descent with optional momentum:
//
//	v = momentum*v + grad
//	p = p - lr*v
//
// With momentum = 0 this is plain gradient descent.
type SGD struct {
	params     []*tensor.RawTensor
	lr         float32
	momentum   float32
	velocities map[*tensor.RawTensor][]float32
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*tensor.RawTensor, lr, momentum float32) *SGD {
	return &SGD{
		params:     params,
		lr:         lr,
		momentum:   momentum,
		velocities: make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies one SGD update.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range s.params {
		grad, ok := grads[p]
		if !ok {
			continue
		}

		data := p.AsFloat32()
		gradData := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range data {
				data[i] -= s.lr * gradData[i]
			}
			continue
		}

		v, ok := s.velocities[p]
		if !ok {
			v = make([]float32, len(data))
			s.velocities[p] = v
		}
		for i := range data {
			v[i] = s.momentum*v[i] + gradData[i]
			data[i] -= s.lr * v[i]
		}
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float32 {
	return s.lr
}
