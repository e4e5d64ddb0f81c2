package neuralnet

import "fmt"

// Backpropagate computes the gradient of objective for one forward pass.
// optimised selects the objective's simplified output error.
func Backpropagate(ns *NetworkStructure, state *NetworkState, objective Objective, act *Activation, expected *Matrix, optimised bool) (*Correction, error) {
	last := ns.Layers - 1
	if act.Layers != ns.Layers {
		return nil, fmt.Errorf("%w: activation of %d layers for network of %d", ErrShapeMismatch, act.Layers, ns.Layers)
	}

	outputError := objective.ErrorSimple
	if optimised {
		outputError = objective.ErrorOptimised
	}
	delta, err := outputError(expected, act.Output[last], act.Input[last], ns.Functions[last])
	if err != nil {
		return nil, fmt.Errorf("output error: %w", err)
	}

	correction := NewCorrection(ns)
	for l := last; l >= 1; l-- {
		if err := columnSums(correction.Biases[l], delta); err != nil {
			return nil, fmt.Errorf("layer %d: %w", l, err)
		}
		if err := outerProduct(correction.Weights[l], act.Output[l-1], delta); err != nil {
			return nil, fmt.Errorf("layer %d: %w", l, err)
		}
		if l == 1 {
			break
		}

		// δ_{l-1} = δ_l·W_lᵀ ⊙ f'(z_{l-1}) ⊙ mask_{l-1}
		previous := NewMatrix(delta.rows, state.Weights[l].rows)
		if previous.Len() > 0 && delta.columns > 0 {
			previous.dense().Mul(delta.dense(), state.Weights[l].dense().T())
		}
		derivative := act.Input[l-1].Clone()
		ns.Functions[l-1].Derivative(derivative)
		if err := previous.multiplyElements(derivative); err != nil {
			return nil, fmt.Errorf("layer %d: %w", l-1, err)
		}
		if mask := act.Mask[l-1]; mask != nil {
			if err := previous.multiplyElements(mask); err != nil {
				return nil, fmt.Errorf("layer %d mask: %w", l-1, err)
			}
		}
		delta = previous
	}
	return correction, nil
}

// columnSums writes the per-column sum of delta into the 1 x n bias gradient.
func columnSums(dst, delta *Matrix) error {
	if dst.rows != 1 || dst.columns != delta.columns {
		return fmt.Errorf("%w: bias gradient %s for error %s", ErrShapeMismatch, dst.shape(), delta.shape())
	}
	for r := 0; r < delta.rows; r++ {
		for c := 0; c < delta.columns; c++ {
			dst.data[c] += delta.data[r*delta.columns+c]
		}
	}
	return nil
}

// outerProduct writes inputᵀ·delta into dst.
func outerProduct(dst, input, delta *Matrix) error {
	if input.rows != delta.rows || dst.rows != input.columns || dst.columns != delta.columns {
		return fmt.Errorf("%w: weight gradient %s from %s and %s", ErrShapeMismatch, dst.shape(), input.shape(), delta.shape())
	}
	if dst.Len() == 0 || input.rows == 0 {
		return nil
	}
	dst.dense().Mul(input.dense().T(), delta.dense())
	return nil
}
