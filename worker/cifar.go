package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"gorgonia.org/tensor"
)

const (
	CIFARImageSize = 32 * 32 * 3
	CIFARLabelSize = 1
	CIFARClasses   = 10
	cifarRow       = CIFARLabelSize + CIFARImageSize
)

// ReadCIFAR decodes CIFAR-10 binary records (one label byte, then 3072 pixel
// bytes) into a bundle. Pixels are scaled into [0, 1] and labels one-hot encoded.
func ReadCIFAR(r io.Reader) (*Bundle, error) {
	br := bufio.NewReader(r)
	var pixels []float64
	var labels []int
	row := make([]byte, cifarRow)
	for {
		_, err := io.ReadFull(br, row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cifar record %d: %w", len(labels), err)
		}
		label := int(row[0])
		if label >= CIFARClasses {
			return nil, fmt.Errorf("cifar record %d: label %d", len(labels), label)
		}
		labels = append(labels, label)
		for _, p := range row[CIFARLabelSize:] {
			pixels = append(pixels, float64(p)/255.0)
		}
	}
	if len(labels) == 0 {
		return &Bundle{inputWidth: CIFARImageSize, outputWidth: CIFARClasses}, nil
	}
	return newBundle(len(labels), CIFARImageSize, CIFARClasses, pixels, oneHotEncode(labels, CIFARClasses).Float64s()), nil
}

// ReadCIFARFile reads a CIFAR-10 batch file from path.
func ReadCIFARFile(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	b, err := ReadCIFAR(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func oneHotEncode(labels []int, numClasses int) *tensor.Dense {
	norm := make([]float64, len(labels)*numClasses)
	for i, label := range labels {
		norm[i*numClasses+label] = 1.0
	}
	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(len(labels), numClasses), tensor.WithBacking(norm))
}
