package worker

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"gon/neuralnet"
)

func mustBundle(t *testing.T, inputs, outputs [][]float64) *Bundle {
	t.Helper()
	b, err := NewBundle(inputs, outputs)
	if err != nil {
		t.Fatalf("NewBundle: %v", err)
	}
	return b
}

// twoBundles holds one sample in bundle 0 and two in bundle 1.
func twoBundles(t *testing.T) *WorkerData {
	t.Helper()
	return NewWorkerData(
		mustBundle(t, [][]float64{{0}}, [][]float64{{0}}),
		mustBundle(t, [][]float64{{1}, {2}}, [][]float64{{1}, {2}}),
	)
}

func TestBatchDataIndex(t *testing.T) {
	b, err := NewBatchData(twoBundles(t), 1)
	if err != nil {
		t.Fatalf("NewBatchData: %v", err)
	}
	if b.BatchLength() != 1 || b.DataLength() != 3 {
		t.Fatalf("BatchData = %d/%d; want 1/3", b.BatchLength(), b.DataLength())
	}
	want := []SampleIndex{{0, 0}, {1, 0}, {1, 1}}
	for n, w := range want {
		got, err := b.SampleIndex(n, 0)
		if err != nil {
			t.Fatalf("SampleIndex(%d, 0): %v", n, err)
		}
		if got != w {
			t.Errorf("SampleIndex(%d, 0) = %s; want %s", n, got, w)
		}
	}
	got, err := b.SampleIndex(1, 1)
	if err != nil {
		t.Fatalf("SampleIndex(1, 1): %v", err)
	}
	if got != (SampleIndex{1, 1}) {
		t.Errorf("SampleIndex(1, 1) = %s; want (1, 1)", got)
	}
}

func TestBatchDataBatches(t *testing.T) {
	b, err := NewBatchData(twoBundles(t), 2)
	if err != nil {
		t.Fatalf("NewBatchData: %v", err)
	}
	if got := b.Batches(); got != 2 {
		t.Fatalf("Batches() = %d; want 2", got)
	}
	first, err := b.Batch(0)
	if err != nil || len(first) != 2 {
		t.Fatalf("Batch(0) = %v, %v; want 2 indices", first, err)
	}
	last, err := b.Batch(1)
	if err != nil || len(last) != 1 {
		t.Fatalf("Batch(1) = %v, %v; want 1 index", last, err)
	}
	if got, _ := b.SampleIndex(1, 0); got != (SampleIndex{1, 1}) {
		t.Errorf("SampleIndex(1, 0) = %s; want (1, 1)", got)
	}
}

func TestBatchDataOutOfRange(t *testing.T) {
	b, err := NewBatchData(twoBundles(t), 2)
	if err != nil {
		t.Fatalf("NewBatchData: %v", err)
	}
	cases := []struct{ batch, offset int }{
		{1, 1}, {2, 0}, {-1, 0}, {0, -1}, {0, 3},
		{math.MaxInt/2 + 1, 0},
		{math.MaxInt / 2, math.MaxInt},
	}
	for _, tc := range cases {
		if _, err := b.SampleIndex(tc.batch, tc.offset); !errors.Is(err, neuralnet.ErrIndexOutOfRange) {
			t.Errorf("SampleIndex(%d, %d) err = %v; want ErrIndexOutOfRange", tc.batch, tc.offset, err)
		}
	}
	if _, err := b.Batch(2); !errors.Is(err, neuralnet.ErrIndexOutOfRange) {
		t.Errorf("Batch(2) err = %v; want ErrIndexOutOfRange", err)
	}
	if _, err := NewBatchData(twoBundles(t), 0); err == nil {
		t.Error("NewBatchData with batch length 0 did not fail")
	}

	wide, err := NewBatchData(twoBundles(t), 4)
	if err != nil {
		t.Fatalf("NewBatchData: %v", err)
	}
	// These products wrap to a negative or in-range position.
	for _, batch := range []int{math.MaxInt/4 + 1, math.MaxInt / 2, math.MaxInt} {
		if _, err := wide.SampleIndex(batch, 0); !errors.Is(err, neuralnet.ErrIndexOutOfRange) {
			t.Errorf("SampleIndex(%d, 0) err = %v; want ErrIndexOutOfRange", batch, err)
		}
	}
}

func TestBatchDataShuffleIsPermutation(t *testing.T) {
	var bundles []*Bundle
	for i := 0; i < 5; i++ {
		rows := make([][]float64, 20)
		for j := range rows {
			rows[j] = []float64{float64(i*20 + j)}
		}
		bundles = append(bundles, mustBundle(t, rows, rows))
	}
	data := NewWorkerData(bundles...)
	b, err := NewBatchData(data, 7)
	if err != nil {
		t.Fatalf("NewBatchData: %v", err)
	}
	b.Shuffle(rand.New(rand.NewSource(1)))

	seen := make([]int, 0, b.DataLength())
	moved := false
	for position := 0; position < b.DataLength(); position++ {
		idx, err := b.SampleIndex(position/7, position%7)
		if err != nil {
			t.Fatalf("SampleIndex: %v", err)
		}
		flat := idx.Bundle*20 + idx.Index
		if flat != position {
			moved = true
		}
		seen = append(seen, flat)
	}
	if !moved {
		t.Error("Shuffle left the index unchanged")
	}
	sort.Ints(seen)
	for i, v := range seen {
		if v != i {
			t.Fatalf("shuffled index is not a permutation: %v", seen)
		}
	}
}

func TestWorkerDataSample(t *testing.T) {
	data := twoBundles(t)
	if data.Len() != 3 || data.Bundles() != 2 {
		t.Fatalf("Len/Bundles = %d/%d; want 3/2", data.Len(), data.Bundles())
	}
	input, expected, err := data.Sample(SampleIndex{Bundle: 1, Index: 1})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if input.At(0, 0) != 2 || expected.At(0, 0) != 2 {
		t.Errorf("Sample((1, 1)) = %v, %v; want 2, 2", input.Data(), expected.Data())
	}
	for _, idx := range []SampleIndex{{2, 0}, {1, 2}, {-1, 0}} {
		if _, _, err := data.Sample(idx); !errors.Is(err, neuralnet.ErrIndexOutOfRange) {
			t.Errorf("Sample(%s) err = %v; want ErrIndexOutOfRange", idx, err)
		}
	}
}
