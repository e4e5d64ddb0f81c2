package worker

import (
	"fmt"

	"gon/neuralnet"
)

// WorkerData owns the sample bundles a worker trains on, in load order.
type WorkerData struct {
	bundles []*Bundle
}

func NewWorkerData(bundles ...*Bundle) *WorkerData {
	return &WorkerData{bundles: bundles}
}

// ReadWorkerData loads one bundle per path, keeping the order of paths.
func ReadWorkerData(paths []string) (*WorkerData, error) {
	data := &WorkerData{bundles: make([]*Bundle, 0, len(paths))}
	for _, path := range paths {
		b, err := ReadBundleFile(path)
		if err != nil {
			return nil, err
		}
		data.Add(b)
	}
	return data, nil
}

// Add appends b after the bundles already loaded.
func (d *WorkerData) Add(b *Bundle) {
	d.bundles = append(d.bundles, b)
}

// Bundles is the number of loaded bundles.
func (d *WorkerData) Bundles() int { return len(d.bundles) }

func (d *WorkerData) Bundle(i int) *Bundle { return d.bundles[i] }

// Len is the total number of samples across bundles.
func (d *WorkerData) Len() int {
	n := 0
	for _, b := range d.bundles {
		n += b.Len()
	}
	return n
}

// Sample materialises the sample idx refers to.
func (d *WorkerData) Sample(idx SampleIndex) (input, expected *neuralnet.Matrix, err error) {
	if idx.Bundle < 0 || idx.Bundle >= len(d.bundles) {
		return nil, nil, fmt.Errorf("%w: bundle %d of %d", neuralnet.ErrIndexOutOfRange, idx.Bundle, len(d.bundles))
	}
	return d.bundles[idx.Bundle].Sample(idx.Index)
}

// Examples materialises every index in order.
func (d *WorkerData) Examples(indices []SampleIndex) ([]neuralnet.Example, error) {
	examples := make([]neuralnet.Example, len(indices))
	for i, idx := range indices {
		input, expected, err := d.Sample(idx)
		if err != nil {
			return nil, err
		}
		examples[i] = neuralnet.Example{Input: input, Expected: expected}
	}
	return examples, nil
}
