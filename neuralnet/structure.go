package neuralnet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NetworkStructure is the static description of a network. Layer 0 is the
// input layer; layer l >= 1 owns a Sizes[l-1] x Sizes[l] weight matrix, a
// 1 x Sizes[l] bias and the activation Functions[l].
type NetworkStructure struct {
	Layers       int
	Sizes        []int
	Dropout      []float64
	Functions    []ActivationFunction
	Presentation Presentation
}

// NewNetworkStructure validates and assembles a structure. functions holds one
// activation per non-input layer. dropout may be nil, or hold one rate per
// layer; the rate of the output layer is never used.
func NewNetworkStructure(sizes []int, functions []ActivationFunction, dropout []float64, presentation Presentation) (*NetworkStructure, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidStructure, len(sizes))
	}
	for l, size := range sizes {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidStructure, l, size)
		}
	}
	if len(functions) != len(sizes)-1 {
		return nil, fmt.Errorf("%w: %d activations for %d layers", ErrInvalidStructure, len(functions), len(sizes)-1)
	}
	if dropout == nil {
		dropout = make([]float64, len(sizes))
	}
	if len(dropout) != len(sizes) {
		return nil, fmt.Errorf("%w: %d dropout rates for %d layers", ErrInvalidStructure, len(dropout), len(sizes))
	}
	for l, rate := range dropout {
		if rate < 0 || rate >= 1 || math.IsNaN(rate) {
			return nil, fmt.Errorf("%w: layer %d rate %g", ErrInvalidDropout, l, rate)
		}
	}
	if presentation == nil {
		return nil, fmt.Errorf("%w: missing presentation", ErrInvalidFunctionIdentifier)
	}
	fs := make([]ActivationFunction, len(sizes))
	for i, f := range functions {
		if f == nil {
			return nil, fmt.Errorf("%w: layer %d has no activation", ErrInvalidFunctionIdentifier, i+1)
		}
		fs[i+1] = f
	}
	return &NetworkStructure{
		Layers:       len(sizes),
		Sizes:        append([]int(nil), sizes...),
		Dropout:      append([]float64(nil), dropout...),
		Functions:    fs,
		Presentation: presentation,
	}, nil
}

// WeightShape returns the weight matrix shape of layer l; 0x0 for the input layer.
func (ns *NetworkStructure) WeightShape(l int) (rows, columns int) {
	if l == 0 {
		return 0, 0
	}
	return ns.Sizes[l-1], ns.Sizes[l]
}

// NetworkState holds the trainable parameters for a NetworkStructure.
type NetworkState struct {
	Layers  int
	Biases  []*Matrix
	Weights []*Matrix
}

// NewNetworkState allocates zero parameters shaped by ns.
func NewNetworkState(ns *NetworkStructure) *NetworkState {
	state := &NetworkState{
		Layers:  ns.Layers,
		Biases:  make([]*Matrix, ns.Layers),
		Weights: make([]*Matrix, ns.Layers),
	}
	for l := 0; l < ns.Layers; l++ {
		rows, columns := ns.WeightShape(l)
		state.Biases[l] = NewMatrix(min(rows, 1), columns)
		state.Weights[l] = NewMatrix(rows, columns)
	}
	return state
}

// Initialize fills every parameter with xavier-uniform draws.
func (s *NetworkState) Initialize(src Source) {
	for l := 1; l < s.Layers; l++ {
		w := s.Weights[l]
		limit := math.Sqrt(6.0 / float64(w.rows+w.columns))
		dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
		for i := range w.data {
			w.data[i] = dist.Rand()
		}
		for i := range s.Biases[l].data {
			s.Biases[l].data[i] = dist.Rand()
		}
	}
}
