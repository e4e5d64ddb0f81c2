package neuralnet

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Params are the training knobs of a NeuralNetwork.
type Params struct {
	// Optimised selects the objective's simplified output error.
	Optimised bool
	// Workers bounds the goroutines running per-example passes in TrainBatch.
	Workers int
	Seed    int64
}

// Example is one input with its expected output.
type Example struct {
	Input    *Matrix
	Expected *Matrix
}

// NeuralNetwork ties a structure and its parameters to an objective and an optimizer.
type NeuralNetwork struct {
	Structure *NetworkStructure
	State     *NetworkState
	Objective Objective
	Optimizer Optimizer
	Params    Params

	src Source
}

// NewNeuralNetwork builds a network with xavier-initialised parameters.
func NewNeuralNetwork(structure *NetworkStructure, objective Objective, optimizer Optimizer, params Params) (*NeuralNetwork, error) {
	if objective == nil {
		return nil, fmt.Errorf("%w: missing objective", ErrInvalidFunctionIdentifier)
	}
	if err := ValidateObjective(objective, params.Optimised); err != nil {
		return nil, err
	}
	if optimizer == nil {
		return nil, errors.New("missing optimizer")
	}
	if params.Workers <= 0 {
		params.Workers = 1
	}
	nn := &NeuralNetwork{
		Structure: structure,
		State:     NewNetworkState(structure),
		Objective: objective,
		Optimizer: optimizer,
		Params:    params,
		src:       NewSource(params.Seed),
	}
	nn.State.Initialize(nn.src)
	return nn, nil
}

// FeedForward runs input through the network; training draws dropout masks.
func (nn *NeuralNetwork) FeedForward(input *Matrix, training bool) (*Activation, error) {
	var src Source
	if training {
		src = nn.src
	}
	return Forward(nn.Structure, nn.State, input, src)
}

// Backpropagate returns the per-example correction for act.
func (nn *NeuralNetwork) Backpropagate(act *Activation, expected *Matrix) (*Correction, error) {
	return Backpropagate(nn.Structure, nn.State, nn.Objective, act, expected, nn.Params.Optimised)
}

// TrainBatch runs every example forward and backward, sums the corrections
// and applies them. It returns the mean training loss of the batch.
func (nn *NeuralNetwork) TrainBatch(examples []Example) (float64, error) {
	if len(examples) == 0 {
		return 0, errors.New("empty batch")
	}
	total := NewCorrection(nn.Structure)
	var (
		mu       sync.Mutex
		loss     float64
		firstErr error
	)
	forEach(len(examples), nn.Params.Workers, func(i int) {
		l, correction, err := nn.example(examples[i])
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			err = Accumulate(total, correction)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("example %d: %w", i, err)
			}
			return
		}
		loss += l
	})
	if firstErr != nil {
		return 0, firstErr
	}
	if err := nn.Optimizer.Apply(nn.State, total, len(examples)); err != nil {
		return 0, err
	}
	return loss / float64(len(examples)), nil
}

func (nn *NeuralNetwork) example(ex Example) (float64, *Correction, error) {
	act, err := nn.FeedForward(ex.Input, true)
	if err != nil {
		return 0, nil, err
	}
	loss, err := nn.Objective.Loss(ex.Expected, act.Last())
	if err != nil {
		return 0, nil, err
	}
	correction, err := nn.Backpropagate(act, ex.Expected)
	if err != nil {
		return 0, nil, err
	}
	return loss, correction, nil
}

// Loss evaluates the objective on input without dropout.
func (nn *NeuralNetwork) Loss(input, expected *Matrix) (float64, error) {
	act, err := nn.FeedForward(input, false)
	if err != nil {
		return 0, err
	}
	return nn.Objective.Loss(expected, act.Last())
}

// Predict decodes the inference output of input into a label.
func (nn *NeuralNetwork) Predict(input *Matrix) (int, error) {
	act, err := nn.FeedForward(input, false)
	if err != nil {
		return 0, err
	}
	return nn.Structure.Presentation.Present(act.Last())
}

// forEach calls body for 0..length-1 on at most limit goroutines.
func forEach(length, limit int, body func(i int)) {
	if limit <= 1 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)
	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			body(i)
		}(i)
	}
	wg.Wait()
}

// Debug
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Objective: %s\n", nn.Objective))
	for l := 1; l < nn.Structure.Layers; l++ {
		sb.WriteString(fmt.Sprintf("Layer %d (%s, dropout=%.2f):\n", l, nn.Structure.Functions[l], nn.Structure.Dropout[l]))
		sb.WriteString(fmt.Sprintf("Weights %s", nn.State.Weights[l]))
		sb.WriteString(fmt.Sprintf("Biases %s", nn.State.Biases[l]))
	}
	return sb.String()
}
