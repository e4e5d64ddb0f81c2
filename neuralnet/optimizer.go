package neuralnet

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Optimizer defines interface to apply a batch correction to the network parameters.
type Optimizer interface {
	Apply(state *NetworkState, correction *Correction, batchSize int) error
}

// SGD implements stochastic gradient descent with optional L2 weight decay.
type SGD struct {
	LearningRate float64
	// Decay multiplies LearningRate after every Apply when positive.
	Decay float64
	L2    float64
}

// Apply averages the correction over batchSize and steps against it.
func (o *SGD) Apply(state *NetworkState, correction *Correction, batchSize int) error {
	if batchSize <= 0 {
		return errors.New("invalid batch size")
	}
	if state.Layers != correction.Layers {
		return fmt.Errorf("%w: correction of %d layers for state of %d", ErrShapeMismatch, correction.Layers, state.Layers)
	}
	step := o.LearningRate / float64(batchSize)
	for l := 0; l < state.Layers; l++ {
		if err := o.update(state.Weights[l], correction.Weights[l], step); err != nil {
			return fmt.Errorf("layer %d weights: %w", l, err)
		}
		if err := o.update(state.Biases[l], correction.Biases[l], step); err != nil {
			return fmt.Errorf("layer %d biases: %w", l, err)
		}
	}
	if o.Decay > 0 {
		o.LearningRate *= o.Decay
	}
	return nil
}

func (o *SGD) update(param, gradient *Matrix, step float64) error {
	if param.Len() != gradient.Len() {
		return fmt.Errorf("%w: gradient %s for %s", ErrShapeMismatch, gradient.shape(), param.shape())
	}
	if o.L2 > 0 {
		floats.Scale(1-o.LearningRate*o.L2, param.data)
	}
	floats.AddScaled(param.data, -step, gradient.data)
	return nil
}
