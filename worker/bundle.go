package worker

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gorgonia.org/tensor"

	"gon/neuralnet"
)

// Bundle is one on-disk batch of samples. Inputs and expected outputs are
// kept as (samples, width) tensors.
type Bundle struct {
	inputs      *tensor.Dense
	outputs     *tensor.Dense
	length      int
	inputWidth  int
	outputWidth int
}

type bundleHeader struct {
	Samples     int32
	InputWidth  int32
	OutputWidth int32
}

// NewBundle copies the given rows into a bundle. Every input row must have
// the same width, and likewise every output row.
func NewBundle(inputs, outputs [][]float64) (*Bundle, error) {
	if len(inputs) != len(outputs) {
		return nil, fmt.Errorf("bundle: %d inputs for %d outputs", len(inputs), len(outputs))
	}
	if len(inputs) == 0 {
		return &Bundle{}, nil
	}
	in, inWidth, err := flatten(inputs)
	if err != nil {
		return nil, fmt.Errorf("bundle inputs: %w", err)
	}
	out, outWidth, err := flatten(outputs)
	if err != nil {
		return nil, fmt.Errorf("bundle outputs: %w", err)
	}
	return newBundle(len(inputs), inWidth, outWidth, in, out), nil
}

func newBundle(length, inputWidth, outputWidth int, in, out []float64) *Bundle {
	return &Bundle{
		inputs:      tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(length, inputWidth), tensor.WithBacking(in)),
		outputs:     tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(length, outputWidth), tensor.WithBacking(out)),
		length:      length,
		inputWidth:  inputWidth,
		outputWidth: outputWidth,
	}
}

func flatten(rows [][]float64) ([]float64, int, error) {
	width := len(rows[0])
	if width == 0 {
		return nil, 0, fmt.Errorf("%w: empty row", neuralnet.ErrShapeMismatch)
	}
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, 0, fmt.Errorf("%w: row %d has width %d, want %d", neuralnet.ErrShapeMismatch, i, len(row), width)
		}
		data = append(data, row...)
	}
	return data, width, nil
}

// Len is the number of samples in the bundle.
func (b *Bundle) Len() int { return b.length }

func (b *Bundle) InputWidth() int  { return b.inputWidth }
func (b *Bundle) OutputWidth() int { return b.outputWidth }

// Sample copies sample i out as a pair of 1 x width matrices.
func (b *Bundle) Sample(i int) (input, expected *neuralnet.Matrix, err error) {
	if i < 0 || i >= b.length {
		return nil, nil, fmt.Errorf("%w: sample %d of %d", neuralnet.ErrIndexOutOfRange, i, b.length)
	}
	input, err = neuralnet.NewMatrixFrom(1, b.inputWidth, b.inputs.Float64s()[i*b.inputWidth:(i+1)*b.inputWidth])
	if err != nil {
		return nil, nil, err
	}
	expected, err = neuralnet.NewMatrixFrom(1, b.outputWidth, b.outputs.Float64s()[i*b.outputWidth:(i+1)*b.outputWidth])
	if err != nil {
		return nil, nil, err
	}
	return input, expected, nil
}

// ReadBundle decodes a bundle: a little-endian int32 header (samples, input
// width, output width) followed by each sample's input then output as float32.
func ReadBundle(r io.Reader) (*Bundle, error) {
	br := bufio.NewReader(r)
	var hdr bundleHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read bundle header: %w", err)
	}
	if hdr.Samples < 0 || hdr.InputWidth < 0 || hdr.OutputWidth < 0 || (hdr.Samples > 0 && (hdr.InputWidth == 0 || hdr.OutputWidth == 0)) {
		return nil, fmt.Errorf("bundle header: samples=%d input=%d output=%d", hdr.Samples, hdr.InputWidth, hdr.OutputWidth)
	}
	if hdr.Samples == 0 {
		return &Bundle{inputWidth: int(hdr.InputWidth), outputWidth: int(hdr.OutputWidth)}, nil
	}
	length, inWidth, outWidth := int(hdr.Samples), int(hdr.InputWidth), int(hdr.OutputWidth)
	in := make([]float64, 0, length*inWidth)
	out := make([]float64, 0, length*outWidth)
	inRow := make([]float32, inWidth)
	outRow := make([]float32, outWidth)
	for i := 0; i < length; i++ {
		if err := binary.Read(br, binary.LittleEndian, inRow); err != nil {
			return nil, fmt.Errorf("read sample %d input: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, outRow); err != nil {
			return nil, fmt.Errorf("read sample %d output: %w", i, err)
		}
		for _, v := range inRow {
			in = append(in, float64(v))
		}
		for _, v := range outRow {
			out = append(out, float64(v))
		}
	}
	return newBundle(length, inWidth, outWidth, in, out), nil
}

// ReadBundleFile reads the bundle stored at path.
func ReadBundleFile(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	b, err := ReadBundle(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// WriteBundle encodes b in the format read by ReadBundle.
func WriteBundle(w io.Writer, b *Bundle) error {
	bw := bufio.NewWriter(w)
	hdr := bundleHeader{
		Samples:     int32(b.length),
		InputWidth:  int32(b.inputWidth),
		OutputWidth: int32(b.outputWidth),
	}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return err
	}
	for i := 0; i < b.length; i++ {
		if err := writeRow(bw, b.inputs.Float64s()[i*b.inputWidth:(i+1)*b.inputWidth]); err != nil {
			return err
		}
		if err := writeRow(bw, b.outputs.Float64s()[i*b.outputWidth:(i+1)*b.outputWidth]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRow(w io.Writer, row []float64) error {
	narrow := make([]float32, len(row))
	for i, v := range row {
		narrow[i] = float32(v)
	}
	return binary.Write(w, binary.LittleEndian, narrow)
}
