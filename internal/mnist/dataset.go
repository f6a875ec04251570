package mnist

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/lucko515/residual-network/internal/tensor"
)

// Standard MNIST file names inside the data directory.
const (
	trainImagesFile = "train-images-idx3-ubyte"
	trainLabelsFile = "train-labels-idx1-ubyte"
	testImagesFile  = "t10k-images-idx3-ubyte"
	testLabelsFile  = "t10k-labels-idx1-ubyte"
)

// Dataset holds normalized images and their labels.
type Dataset struct {
	Images [][]float32 // one [Rows*Cols] slice per sample, values in [0, 1]
	Labels []int32
	Rows   int
	Cols   int
}

// Load reads the train or test split from dataDir. maxSamples > 0 truncates
// the dataset, which keeps smoke runs fast.
func Load(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	imagesFile, labelsFile := testImagesFile, testLabelsFile
	if train {
		imagesFile, labelsFile = trainImagesFile, trainLabelsFile
	}

	imgF, err := os.Open(filepath.Join(dataDir, imagesFile))
	if err != nil {
		return nil, fmt.Errorf("opening images: %w", err)
	}
	defer imgF.Close()

	images, rows, cols, err := ReadImages(imgF)
	if err != nil {
		return nil, err
	}

	lblF, err := os.Open(filepath.Join(dataDir, labelsFile))
	if err != nil {
		return nil, fmt.Errorf("opening labels: %w", err)
	}
	defer lblF.Close()

	labels, err := ReadLabels(lblF)
	if err != nil {
		return nil, err
	}

	if len(images) != len(labels) {
		return nil, fmt.Errorf("image/label count mismatch: %d vs %d", len(images), len(labels))
	}

	if maxSamples > 0 && maxSamples < len(images) {
		images = images[:maxSamples]
		labels = labels[:maxSamples]
	}

	return &Dataset{Images: images, Labels: labels, Rows: rows, Cols: cols}, nil
}

// Synthetic builds a deterministic fake dataset with the MNIST geometry.
// Each class gets a distinct bright horizontal band, which is enough
// structure for a network to learn and for pipeline tests to converge on.
func Synthetic(n int, seed int64) *Dataset {
	const rows, cols, classes = 28, 28, 10
	rng := rand.New(rand.NewSource(seed))

	ds := &Dataset{
		Images: make([][]float32, n),
		Labels: make([]int32, n),
		Rows:   rows,
		Cols:   cols,
	}
	for i := 0; i < n; i++ {
		label := int32(rng.Intn(classes))
		img := make([]float32, rows*cols)
		for j := range img {
			img[j] = rng.Float32() * 0.1
		}
		// Bright band at a class-specific row.
		bandRow := 2 + int(label)*2
		for r := bandRow; r < bandRow+2; r++ {
			for c := 4; c < cols-4; c++ {
				img[r*cols+c] = 0.8 + rng.Float32()*0.2
			}
		}
		ds.Images[i] = img
		ds.Labels[i] = label
	}
	return ds
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Images)
}

// Shuffle permutes the samples in place using the given source.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	perm := rng.Perm(d.Len())
	images := make([][]float32, d.Len())
	labels := make([]int32, d.Len())
	for i, p := range perm {
		images[i] = d.Images[p]
		labels[i] = d.Labels[p]
	}
	d.Images = images
	d.Labels = labels
}

// Split divides the dataset into a first part holding ratio of the samples
// and a second part holding the rest. The split is positional; shuffle
// first for a random split.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	if ratio <= 0 || ratio >= 1 {
		panic(fmt.Sprintf("split ratio must be in (0, 1), got %f", ratio))
	}
	cut := int(float64(d.Len()) * ratio)
	first := &Dataset{Images: d.Images[:cut], Labels: d.Labels[:cut], Rows: d.Rows, Cols: d.Cols}
	second := &Dataset{Images: d.Images[cut:], Labels: d.Labels[cut:], Rows: d.Rows, Cols: d.Cols}
	return first, second
}

// Batch is one mini-batch materialized as tensors.
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B] // [Size, 1, Rows, Cols]
	Labels *tensor.Tensor[int32, B]   // [Size]
	Size   int
}

// Batches materializes mini-batch tensors. The final short batch is kept.
func Batches[B tensor.Backend](d *Dataset, batchSize int, backend B) []Batch[B] {
	if batchSize <= 0 {
		panic(fmt.Sprintf("batch size must be > 0, got %d", batchSize))
	}

	var batches []Batch[B]
	pixels := d.Rows * d.Cols

	for start := 0; start < d.Len(); start += batchSize {
		end := start + batchSize
		if end > d.Len() {
			end = d.Len()
		}
		size := end - start

		imageData := make([]float32, size*pixels)
		for i := 0; i < size; i++ {
			copy(imageData[i*pixels:], d.Images[start+i])
		}

		images, err := tensor.FromSlice(imageData, tensor.Shape{size, 1, d.Rows, d.Cols}, backend)
		if err != nil {
			panic(fmt.Sprintf("batch images: %v", err))
		}
		labels, err := tensor.FromSlice(d.Labels[start:end], tensor.Shape{size}, backend)
		if err != nil {
			panic(fmt.Sprintf("batch labels: %v", err))
		}

		batches = append(batches, Batch[B]{Images: images, Labels: labels, Size: size})
	}
	return batches
}
