// Package mnist loads the MNIST handwritten digit dataset from IDX files
// and prepares shuffled mini-batches for training.
package mnist

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	imageMagic = 2051
	labelMagic = 2049
)

// ReadImages parses an IDX3 image file (magic 2051) and returns one
// normalized [0, 1] float32 slice per image, plus the image dimensions.
func ReadImages(r io.Reader) (images [][]float32, rows, cols int, err error) {
	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("reading image header: %w", err)
		}
	}
	if header[0] != imageMagic {
		return nil, 0, 0, fmt.Errorf("invalid image magic number: got %d, want %d", header[0], imageMagic)
	}

	count := int(header[1])
	rows = int(header[2])
	cols = int(header[3])
	pixels := rows * cols

	images = make([][]float32, count)
	buf := make([]byte, pixels)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, 0, fmt.Errorf("reading image %d: %w", i, err)
		}
		img := make([]float32, pixels)
		for j, p := range buf {
			img[j] = float32(p) / 255.0
		}
		images[i] = img
	}
	return images, rows, cols, nil
}

// ReadLabels parses an IDX1 label file (magic 2049) and returns the class
// indices.
func ReadLabels(r io.Reader) ([]int32, error) {
	var header [2]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("reading label header: %w", err)
		}
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("invalid label magic number: got %d, want %d", header[0], labelMagic)
	}

	count := int(header[1])
	buf := make([]byte, count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	labels := make([]int32, count)
	for i, b := range buf {
		labels[i] = int32(b)
	}
	return labels, nil
}
