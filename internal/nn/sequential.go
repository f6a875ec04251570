package nn

import "github.com/lucko515/residual-network/internal/tensor"

// Sequential chains modules, feeding each module's output to the next.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Add appends a module to the chain.
func (s *Sequential[B]) Add(m Module[B]) {
	s.modules = append(s.modules, m)
}

// Forward runs the input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Parameters concatenates the parameters of all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index i.
func (s *Sequential[B]) Module(i int) Module[B] {
	return s.modules[i]
}
