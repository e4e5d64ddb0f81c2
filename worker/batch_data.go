package worker

import (
	"fmt"
	"strings"

	"gon/neuralnet"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// BatchData is a flat, shuffle-able index over every sample of a
// WorkerData, cut into mini-batches of batchLength.
type BatchData struct {
	batchLength int
	dataLength  int
	sampleIndex []SampleIndex
}

// NewBatchData indexes data bundle by bundle, then sample by sample.
func NewBatchData(data *WorkerData, batchLength int) (*BatchData, error) {
	if batchLength <= 0 {
		return nil, fmt.Errorf("batch length must be > 0 (got %d)", batchLength)
	}
	b := &BatchData{
		batchLength: batchLength,
		dataLength:  data.Len(),
	}
	b.sampleIndex = make([]SampleIndex, 0, b.dataLength)
	for bundle := 0; bundle < data.Bundles(); bundle++ {
		for index := 0; index < data.Bundle(bundle).Len(); index++ {
			b.sampleIndex = append(b.sampleIndex, SampleIndex{Bundle: bundle, Index: index})
		}
	}
	return b, nil
}

func (b *BatchData) BatchLength() int { return b.batchLength }
func (b *BatchData) DataLength() int  { return b.dataLength }

// Shuffle permutes the whole index in place.
func (b *BatchData) Shuffle(rng Shuffler) {
	rng.Shuffle(len(b.sampleIndex), func(i, j int) {
		b.sampleIndex[i], b.sampleIndex[j] = b.sampleIndex[j], b.sampleIndex[i]
	})
}

// SampleIndex returns the entry at batchNumber*batchLength + offset.
func (b *BatchData) SampleIndex(batchNumber, offset int) (SampleIndex, error) {
	// Bound batchNumber before multiplying so huge values cannot wrap around.
	if batchNumber < 0 || offset < 0 || offset >= b.dataLength || batchNumber > (b.dataLength-1-offset)/b.batchLength {
		return SampleIndex{}, fmt.Errorf("%w: batch %d offset %d (data length %d)", neuralnet.ErrIndexOutOfRange, batchNumber, offset, b.dataLength)
	}
	return b.sampleIndex[batchNumber*b.batchLength+offset], nil
}

// Batches is the number of mini-batches; the last one may be short.
func (b *BatchData) Batches() int {
	return (b.dataLength + b.batchLength - 1) / b.batchLength
}

// Batch returns the indices of mini-batch n. The slice aliases the index.
func (b *BatchData) Batch(n int) ([]SampleIndex, error) {
	if n < 0 || n >= b.Batches() {
		return nil, fmt.Errorf("%w: batch %d of %d", neuralnet.ErrIndexOutOfRange, n, b.Batches())
	}
	start := n * b.batchLength
	end := start + b.batchLength
	if end > b.dataLength {
		end = b.dataLength
	}
	return b.sampleIndex[start:end], nil
}

func (b *BatchData) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("BatchData batch_length=%d data_length=%d\n", b.batchLength, b.dataLength))
	for i, idx := range b.sampleIndex {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, idx))
	}
	return sb.String()
}
