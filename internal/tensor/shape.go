package tensor

import "fmt"

// Shape holds the dimensions of a tensor, outermost first.
type Shape []int

// NumElements returns the total number of elements described by the shape.
// The empty shape denotes a scalar and has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate reports an error if any dimension is non-positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides:
// stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes applies NumPy broadcasting rules to a pair of shapes.
// Dimensions are compared right to left; they are compatible when equal or
// when one of them is 1. Missing leading dimensions count as 1.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5)
//	(1, 5) + (3, 5) → (3, 5)
//	(3, 4) + (3, 5) → error
func BroadcastShapes(a, b Shape) (Shape, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	result := make(Shape, n)

	for i := 0; i < n; i++ {
		aDim, bDim := 1, 1
		if idx := len(a) - 1 - i; idx >= 0 {
			aDim = a[idx]
		}
		if idx := len(b) - 1 - i; idx >= 0 {
			bDim = b[idx]
		}

		switch {
		case aDim == bDim:
			result[n-1-i] = aDim
		case aDim == 1:
			result[n-1-i] = bDim
		case bDim == 1:
			result[n-1-i] = aDim
		default:
			return nil, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, n-1-i, aDim, bDim)
		}
	}
	return result, nil
}
