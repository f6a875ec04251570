package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lucko515/residual-network/internal/tensor"
)

// HeNormal initializes a tensor with samples from N(0, sqrt(2/fanIn)).
// This is the standard initialization for layers followed by ReLU.
func HeNormal[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: math.Sqrt(2.0 / float64(fanIn)),
	}
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}
	return t
}

// XavierUniform initializes a tensor with uniform samples in
// ±sqrt(6/(fanIn+fanOut)), keeping activation variance stable for layers
// with symmetric activations.
func XavierUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * limit
	}
	return t
}

// Zeros initializes a tensor with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones initializes a tensor with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
