package neuralnet

import (
	"fmt"
	"math"
)

// ActivationFunction transforms a layer's pre-activation in place. Derivative
// is evaluated on the pre-activation, not on the activated output.
type ActivationFunction interface {
	Activate(m *Matrix)
	Derivative(m *Matrix)
	fmt.Stringer
}

func DetermineActivation(name string, alpha float64) (ActivationFunction, error) {
	switch name {
	case "linear", "":
		return Linear{}, nil
	case "relu":
		return ReLU{}, nil
	case "leaky_relu":
		return NewLeakyReLU(alpha), nil
	case "sigmoid":
		return Sigmoid{}, nil
	case "tanh":
		return Tanh{}, nil
	case "softmax":
		return Softmax{}, nil
	}
	return nil, fmt.Errorf("%w: activation %q", ErrInvalidFunctionIdentifier, name)
}

func apply(m *Matrix, f func(x float64) float64) {
	for i, v := range m.data {
		m.data[i] = f(v)
	}
}

type ReLU struct{}

func (r ReLU) Activate(m *Matrix) {
	apply(m, func(x float64) float64 { return math.Max(x, 0) })
}

func (r ReLU) Derivative(m *Matrix) {
	apply(m, func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

func (r ReLU) String() string { return "relu" }

type LeakyReLU struct {
	Alpha float64
}

func NewLeakyReLU(alpha float64) LeakyReLU {
	return LeakyReLU{Alpha: alpha}
}

func (l LeakyReLU) Activate(m *Matrix) {
	apply(m, func(x float64) float64 {
		if x > 0 {
			return x
		}
		return l.Alpha * x
	})
}

func (l LeakyReLU) Derivative(m *Matrix) {
	apply(m, func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return l.Alpha
	})
}

func (l LeakyReLU) String() string { return fmt.Sprintf("leaky_relu(%g)", l.Alpha) }

type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (s Sigmoid) Activate(m *Matrix) {
	apply(m, sigmoid)
}

func (s Sigmoid) Derivative(m *Matrix) {
	apply(m, func(x float64) float64 {
		v := sigmoid(x)
		return v * (1 - v)
	})
}

func (s Sigmoid) String() string { return "sigmoid" }

type Tanh struct{}

func (t Tanh) Activate(m *Matrix) {
	apply(m, math.Tanh)
}

func (t Tanh) Derivative(m *Matrix) {
	apply(m, func(x float64) float64 {
		v := math.Tanh(x)
		return 1 - v*v
	})
}

func (t Tanh) String() string { return "tanh" }

type Linear struct{}

func (l Linear) Activate(m *Matrix) {}

func (l Linear) Derivative(m *Matrix) {
	m.Fill(1)
}

func (l Linear) String() string { return "linear" }

// Softmax normalises each row. Its Derivative is the diagonal of the
// Jacobian, s(1-s); pair it with negative log likelihood and the optimised
// error to get the exact gradient.
type Softmax struct{}

func (s Softmax) Activate(m *Matrix) {
	for r := 0; r < m.rows; r++ {
		softmaxRow(m.data[r*m.columns : (r+1)*m.columns])
	}
}

func (s Softmax) Derivative(m *Matrix) {
	s.Activate(m)
	apply(m, func(v float64) float64 { return v * (1 - v) })
}

func (s Softmax) String() string { return "softmax" }

func softmaxRow(row []float64) {
	if len(row) == 0 {
		return
	}
	peak := row[0]
	for _, v := range row {
		if v > peak {
			peak = v
		}
	}
	sum := 0.0
	for i, v := range row {
		row[i] = math.Exp(v - peak)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}
