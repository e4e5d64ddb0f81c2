package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Correction accumulates bias and weight gradients, one pair per layer.
type Correction struct {
	Layers  int
	Biases  []*Matrix
	Weights []*Matrix
}

// NewCorrection allocates a zero correction shaped like the parameters of ns.
func NewCorrection(ns *NetworkStructure) *Correction {
	state := NewNetworkState(ns)
	return &Correction{
		Layers:  state.Layers,
		Biases:  state.Biases,
		Weights: state.Weights,
	}
}

// Accumulate adds delta into total layer by layer. Matrices are summed over
// their element count, so differing logical shapes with equal lengths are
// accepted.
func Accumulate(total, delta *Correction) error {
	if total.Layers != delta.Layers {
		return fmt.Errorf("%w: accumulate %d layers into %d", ErrShapeMismatch, delta.Layers, total.Layers)
	}
	for l := 0; l < total.Layers; l++ {
		if err := accumulateMatrix(total.Biases[l], delta.Biases[l]); err != nil {
			return fmt.Errorf("layer %d biases: %w", l, err)
		}
		if err := accumulateMatrix(total.Weights[l], delta.Weights[l]); err != nil {
			return fmt.Errorf("layer %d weights: %w", l, err)
		}
	}
	return nil
}

func accumulateMatrix(total, delta *Matrix) error {
	if total.Len() != delta.Len() {
		return fmt.Errorf("%w: %s into %s", ErrShapeMismatch, delta.shape(), total.shape())
	}
	floats.Add(total.data, delta.data)
	return nil
}
