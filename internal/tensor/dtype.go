package tensor

import "fmt"

// DType is the compile-time constraint for element types a Tensor can hold.
type DType interface {
	~float32 | ~int32 | ~uint8
}

// DataType is the runtime tag describing how a RawTensor's bytes are
// interpreted.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Int32
	Uint8
)

// Size returns the element size in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Uint8:
		return 1
	default:
		panic(fmt.Sprintf("unknown data type: %d", int(dt)))
	}
}

// String returns a human-readable type name.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// inferDataType maps a Go element type onto its runtime tag.
func inferDataType[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	case uint8:
		return Uint8
	default:
		panic(fmt.Sprintf("unsupported element type: %T", zero))
	}
}
