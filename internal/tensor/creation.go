package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

func mustRaw[T DType, B Backend](shape Shape, b B) *RawTensor {
	raw, err := NewRaw(shape, inferDataType[T](), b.Device())
	if err != nil {
		panic(fmt.Sprintf("tensor allocation failed: %v", err))
	}
	return raw
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return New[T, B](mustRaw[T](shape, b), b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T](shape, T(1), b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := New[T, B](mustRaw[T](shape, b), b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with samples from the standard normal
// distribution, drawn with the Box-Muller transform.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := New[T, B](mustRaw[T](shape, b), b)
	data := t.Data()
	for i := range data {
		u1 := rand.Float64()
		u2 := rand.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		data[i] = T(float32(z))
	}
	return t
}

// Rand creates a float32 tensor with uniform samples in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := New[T, B](mustRaw[T](shape, b), b)
	data := t.Data()
	for i := range data {
		data[i] = T(rand.Float32())
	}
	return t
}

// Arange creates a 1D tensor with values [start, end) stepping by 1.
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	if end <= start {
		panic(fmt.Sprintf("invalid range: [%d, %d)", start, end))
	}
	t := New[T, B](mustRaw[T](Shape{end - start}, b), b)
	data := t.Data()
	for i := range data {
		data[i] = T(start + i)
	}
	return t
}
