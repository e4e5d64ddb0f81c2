package worker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"

	"gon/neuralnet"
)

func TestBundleRoundTrip(t *testing.T) {
	src := mustBundle(t,
		[][]float64{{0.5, 1, -2}, {3, 0.25, 8}},
		[][]float64{{1, 0}, {0, 1}},
	)
	path := filepath.Join(t.TempDir(), "a.bundle")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteBundle(f, src); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBundleFile(path)
	if err != nil {
		t.Fatalf("ReadBundleFile: %v", err)
	}
	if got.Len() != 2 || got.InputWidth() != 3 || got.OutputWidth() != 2 {
		t.Fatalf("bundle = %d samples %dx%d", got.Len(), got.InputWidth(), got.OutputWidth())
	}
	input, expected, err := got.Sample(1)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !floats.Equal(input.Data(), []float64{3, 0.25, 8}) || !floats.Equal(expected.Data(), []float64{0, 1}) {
		t.Errorf("Sample(1) = %v, %v", input.Data(), expected.Data())
	}
}

func TestReadBundleErrors(t *testing.T) {
	var truncated bytes.Buffer
	binary.Write(&truncated, binary.LittleEndian, bundleHeader{Samples: 2, InputWidth: 1, OutputWidth: 1})
	binary.Write(&truncated, binary.LittleEndian, []float32{1, 1})

	var negative bytes.Buffer
	binary.Write(&negative, binary.LittleEndian, bundleHeader{Samples: -1, InputWidth: 1, OutputWidth: 1})

	for name, raw := range map[string][]byte{
		"empty":     nil,
		"truncated": truncated.Bytes(),
		"negative":  negative.Bytes(),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadBundle(bytes.NewReader(raw)); err == nil {
				t.Error("ReadBundle did not fail")
			}
		})
	}
}

func TestReadEmptyBundle(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBundle(&buf, &Bundle{}); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	b, err := ReadBundle(&buf)
	if err != nil {
		t.Fatalf("ReadBundle: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d; want 0", b.Len())
	}
	if _, _, err := b.Sample(0); !errors.Is(err, neuralnet.ErrIndexOutOfRange) {
		t.Errorf("Sample(0) err = %v; want ErrIndexOutOfRange", err)
	}
}

func TestNewBundleErrors(t *testing.T) {
	if _, err := NewBundle([][]float64{{1}}, nil); err == nil {
		t.Error("mismatched sample counts did not fail")
	}
	if _, err := NewBundle([][]float64{{1}, {1, 2}}, [][]float64{{0}, {1}}); !errors.Is(err, neuralnet.ErrShapeMismatch) {
		t.Errorf("ragged inputs err = %v; want ErrShapeMismatch", err)
	}
}

func TestReadCIFAR(t *testing.T) {
	var buf bytes.Buffer
	for _, label := range []byte{3, 7} {
		record := make([]byte, cifarRow)
		record[0] = label
		record[1] = 255
		buf.Write(record)
	}
	b, err := ReadCIFAR(&buf)
	if err != nil {
		t.Fatalf("ReadCIFAR: %v", err)
	}
	if b.Len() != 2 || b.InputWidth() != CIFARImageSize || b.OutputWidth() != CIFARClasses {
		t.Fatalf("bundle = %d samples %dx%d", b.Len(), b.InputWidth(), b.OutputWidth())
	}
	input, expected, err := b.Sample(1)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if input.At(0, 0) != 1 || input.At(0, 1) != 0 {
		t.Errorf("pixels not scaled: %v", input.Data()[:2])
	}
	if label, _ := expected.Argmax(); label != 7 || floats.Sum(expected.Data()) != 1 {
		t.Errorf("one-hot = %v; want class 7", expected.Data())
	}
}

func TestReadCIFARErrors(t *testing.T) {
	bad := make([]byte, cifarRow)
	bad[0] = CIFARClasses
	if _, err := ReadCIFAR(bytes.NewReader(bad)); err == nil {
		t.Error("label out of range did not fail")
	}
	if _, err := ReadCIFAR(bytes.NewReader(make([]byte, cifarRow+10))); err == nil {
		t.Error("partial record did not fail")
	}
}
