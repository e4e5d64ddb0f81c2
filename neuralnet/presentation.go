package neuralnet

import (
	"fmt"
	"math"
)

// Presentation decodes a final-layer output into a discrete label.
type Presentation interface {
	Present(m *Matrix) (int, error)
}

// DeterminePresentation maps a configuration identifier to a Presentation
// whose result is shifted by alpha.
func DeterminePresentation(id, alpha int) (Presentation, error) {
	switch id {
	case 0:
		return Argmax{Alpha: alpha}, nil
	case 1:
		return FloorFirst{Alpha: alpha}, nil
	case 2:
		return RoundFirst{Alpha: alpha}, nil
	case 3:
		return CeilFirst{Alpha: alpha}, nil
	}
	return nil, fmt.Errorf("%w: presentation %d", ErrInvalidFunctionIdentifier, id)
}

// Argmax presents the position of the largest output.
type Argmax struct{ Alpha int }

func (p Argmax) Present(m *Matrix) (int, error) {
	i, err := m.Argmax()
	if err != nil {
		return 0, err
	}
	return i + p.Alpha, nil
}

type FloorFirst struct{ Alpha int }

func (p FloorFirst) Present(m *Matrix) (int, error) {
	return presentFirst(m, math.Floor, p.Alpha)
}

// RoundFirst rounds half away from zero.
type RoundFirst struct{ Alpha int }

func (p RoundFirst) Present(m *Matrix) (int, error) {
	return presentFirst(m, math.Round, p.Alpha)
}

type CeilFirst struct{ Alpha int }

func (p CeilFirst) Present(m *Matrix) (int, error) {
	return presentFirst(m, math.Ceil, p.Alpha)
}

func presentFirst(m *Matrix, round func(float64) float64, alpha int) (int, error) {
	v, err := m.First()
	if err != nil {
		return 0, err
	}
	return int(round(v)) + alpha, nil
}
