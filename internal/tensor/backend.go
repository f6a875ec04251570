package tensor

// Backend is the computation interface every device implementation satisfies.
// All operations take and return RawTensors; the typed Tensor wrapper routes
// its method calls here. Operations allocate a fresh result and never modify
// their inputs, which is what allows the autodiff decorator to replay them.
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs 2D cross-correlation over NCHW input with an
	// [outC, inC, kH, kW] kernel.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Conv2DInputBackward computes the gradient of Conv2D with respect to
	// its input; Conv2DKernelBackward with respect to its kernel.
	Conv2DInputBackward(input, kernel, gradOutput *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, gradOutput *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D performs max pooling over NCHW input.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor

	// MaxPool2DBackward routes gradOutput back to the argmax positions.
	MaxPool2DBackward(input, gradOutput *RawTensor, kernelSize, stride int) *RawTensor

	// Shape manipulation.
	Reshape(t *RawTensor, shape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	AddScalar(t *RawTensor, scalar float32) *RawTensor
	MulScalar(t *RawTensor, scalar float32) *RawTensor

	// Element-wise math.
	Sqrt(t *RawTensor) *RawTensor
	Rsqrt(t *RawTensor) *RawTensor

	// Reductions along a single dimension. dim may be negative
	// (counted from the end). keepDim retains the reduced axis as size 1.
	SumDim(t *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(t *RawTensor, dim int, keepDim bool) *RawTensor

	// Name returns the backend identifier (e.g. "cpu").
	Name() string

	// Device returns the device this backend computes on.
	Device() Device
}
