package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Activation caches one example's forward pass. Input[l] is the
// pre-activation of layer l (Input[0] is unused), Output[l] the activated and
// masked output, Mask[l] the dropout mask applied to Output[l]. Masks are nil
// outside training.
type Activation struct {
	Layers int
	Input  []*Matrix
	Output []*Matrix
	Mask   []*Matrix
}

func NewActivation(layers int) *Activation {
	return &Activation{
		Layers: layers,
		Input:  make([]*Matrix, layers),
		Output: make([]*Matrix, layers),
		Mask:   make([]*Matrix, layers),
	}
}

// Last returns the output of the final layer.
func (a *Activation) Last() *Matrix {
	return a.Output[a.Layers-1]
}

// Forward runs input through the network. A nil src means inference: no
// dropout masks are drawn.
func Forward(ns *NetworkStructure, state *NetworkState, input *Matrix, src Source) (*Activation, error) {
	if input.columns != ns.Sizes[0] || input.rows == 0 {
		return nil, fmt.Errorf("%w: input %s for input layer of %d", ErrShapeMismatch, input.shape(), ns.Sizes[0])
	}
	last := ns.Layers - 1
	act := NewActivation(ns.Layers)
	act.Output[0] = input.Clone()
	if src != nil {
		act.Mask[0] = dropoutMask(act.Output[0], ns.Dropout[0], src)
		if err := act.Output[0].multiplyElements(act.Mask[0]); err != nil {
			return nil, err
		}
	}
	for l := 1; l <= last; l++ {
		sum, err := product(act.Output[l-1], state.Weights[l])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", l, err)
		}
		if err := addBias(sum, state.Biases[l]); err != nil {
			return nil, fmt.Errorf("layer %d: %w", l, err)
		}
		act.Input[l] = sum

		out := sum.Clone()
		ns.Functions[l].Activate(out)
		if src != nil && l < last {
			act.Mask[l] = dropoutMask(out, ns.Dropout[l], src)
			if err := out.multiplyElements(act.Mask[l]); err != nil {
				return nil, err
			}
		}
		act.Output[l] = out
	}
	return act, nil
}

// addBias adds the 1 x columns bias to every row of m.
func addBias(m, bias *Matrix) error {
	if bias.rows != 1 || bias.columns != m.columns {
		return fmt.Errorf("%w: bias %s for %s", ErrShapeMismatch, bias.shape(), m.shape())
	}
	for r := 0; r < m.rows; r++ {
		floats.Add(m.data[r*m.columns:(r+1)*m.columns], bias.data)
	}
	return nil
}
