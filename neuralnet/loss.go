package neuralnet

import (
	"errors"
	"fmt"
	"math"
)

const (
	// Probabilities fed to a logarithm are clamped into [probabilityFloor, probabilityCeiling].
	probabilityFloor   = 0.0000000000001
	probabilityCeiling = 0.9999999999999
)

// Objective identifiers, as used by configuration.
const (
	CrossEntropyID = iota
	NegativeLogLikelihoodID
	QuadraticID
)

// Objective is a loss function together with its output-layer gradients.
type Objective interface {
	// Loss returns the loss of actual against expected.
	Loss(expected, actual *Matrix) (float64, error)
	// ErrorSimple returns ∂L/∂z for the output layer, where z is lastInput
	// (the output layer pre-activation) and derivative the output activation.
	ErrorSimple(expected, actual, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error)
	// ErrorOptimised is ErrorSimple with the activation derivative cancelled
	// analytically. Objectives without such a form return ErrNoOptimisedError.
	ErrorOptimised(expected, actual, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error)
	fmt.Stringer
}

// DetermineObjective maps a configuration identifier to its Objective.
func DetermineObjective(id int) (Objective, error) {
	switch id {
	case CrossEntropyID:
		return CrossEntropy{}, nil
	case NegativeLogLikelihoodID:
		return NegativeLogLikelihood{}, nil
	case QuadraticID:
		return Quadratic{}, nil
	}
	return nil, fmt.Errorf("%w: objective %d", ErrInvalidFunctionIdentifier, id)
}

// ValidateObjective reports a configuration error when the optimised error
// is requested for an objective that lacks it. The objective is asked directly,
// so pointer and custom implementations are covered.
func ValidateObjective(o Objective, optimised bool) error {
	if !optimised {
		return nil
	}
	one := NewMatrix(1, 1)
	one.Fill(0.5)
	if _, err := o.ErrorOptimised(one, one, one, Linear{}); errors.Is(err, ErrNoOptimisedError) {
		return err
	}
	return nil
}

func clampProbability(p float64) float64 {
	if p <= 0 {
		return probabilityFloor
	}
	if p >= 1 {
		return probabilityCeiling
	}
	return p
}

func checkPair(expected, actual *Matrix) error {
	if !expected.SameShape(actual) {
		return fmt.Errorf("%w: expected %s, actual %s", ErrShapeMismatch, expected.shape(), actual.shape())
	}
	return nil
}

func finite(loss float64) (float64, error) {
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, fmt.Errorf("%w: loss %v", ErrNumericDegeneracy, loss)
	}
	return loss, nil
}

// derivativeAt evaluates derivative at lastInput into a new matrix shaped like expected.
func derivativeAt(expected, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error) {
	result := NewMatrix(expected.rows, expected.columns)
	if err := result.CloneFrom(lastInput); err != nil {
		return nil, err
	}
	derivative.Derivative(result)
	return result, nil
}

// difference returns actual - expected.
func difference(expected, actual *Matrix) *Matrix {
	result := NewMatrix(expected.rows, expected.columns)
	for i := range result.data {
		result.data[i] = actual.data[i] - expected.data[i]
	}
	return result
}

// CrossEntropy is the binary cross-entropy summed over every output.
type CrossEntropy struct{}

func (CrossEntropy) Loss(expected, actual *Matrix) (float64, error) {
	if err := checkPair(expected, actual); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, y := range expected.data {
		p := clampProbability(actual.data[i])
		sum += y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return finite(-sum)
}

func (CrossEntropy) ErrorSimple(expected, actual, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error) {
	if err := checkPair(expected, actual); err != nil {
		return nil, err
	}
	result, err := derivativeAt(expected, lastInput, derivative)
	if err != nil {
		return nil, err
	}
	for i := range result.data {
		p := clampProbability(actual.data[i])
		result.data[i] *= (actual.data[i] - expected.data[i]) / (p * (1 - p))
	}
	return result, nil
}

func (o CrossEntropy) ErrorOptimised(_, _, _ *Matrix, _ ActivationFunction) (*Matrix, error) {
	return nil, fmt.Errorf("%w: %s", ErrNoOptimisedError, o)
}

func (CrossEntropy) String() string { return "cross_entropy" }

// NegativeLogLikelihood is -Σ y·log(ŷ), meant for softmax outputs.
type NegativeLogLikelihood struct{}

func (NegativeLogLikelihood) Loss(expected, actual *Matrix) (float64, error) {
	if err := checkPair(expected, actual); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, y := range expected.data {
		sum += y * math.Log(clampProbability(actual.data[i]))
	}
	return finite(-sum)
}

// ErrorSimple is ŷ - y; the softmax derivative is already folded in.
func (NegativeLogLikelihood) ErrorSimple(expected, actual, _ *Matrix, _ ActivationFunction) (*Matrix, error) {
	if err := checkPair(expected, actual); err != nil {
		return nil, err
	}
	return difference(expected, actual), nil
}

func (o NegativeLogLikelihood) ErrorOptimised(expected, actual, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error) {
	return o.ErrorSimple(expected, actual, lastInput, derivative)
}

func (NegativeLogLikelihood) String() string { return "negative_log_likelihood" }

// Quadratic is half the summed squared error.
type Quadratic struct{}

func (Quadratic) Loss(expected, actual *Matrix) (float64, error) {
	if err := checkPair(expected, actual); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, y := range expected.data {
		d := y - actual.data[i]
		sum += d * d
	}
	return finite(0.5 * sum)
}

func (Quadratic) ErrorSimple(expected, actual, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error) {
	if err := checkPair(expected, actual); err != nil {
		return nil, err
	}
	result, err := derivativeAt(expected, lastInput, derivative)
	if err != nil {
		return nil, err
	}
	for i := range result.data {
		result.data[i] *= actual.data[i] - expected.data[i]
	}
	return result, nil
}

func (o Quadratic) ErrorOptimised(expected, actual, lastInput *Matrix, derivative ActivationFunction) (*Matrix, error) {
	return o.ErrorSimple(expected, actual, lastInput, derivative)
}

func (Quadratic) String() string { return "quadratic" }
