package neuralnet

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func filledCorrection(t *testing.T, ns *NetworkStructure, start float64) *Correction {
	t.Helper()
	c := NewCorrection(ns)
	v := start
	for l := 0; l < c.Layers; l++ {
		for _, m := range []*Matrix{c.Biases[l], c.Weights[l]} {
			for i := range m.Data() {
				m.Data()[i] = v
				v += 0.25
			}
		}
	}
	return c
}

func TestAccumulateIsAssociative(t *testing.T) {
	ns, _ := fixtureNetwork(t)
	a, b, c := filledCorrection(t, ns, 1), filledCorrection(t, ns, -3), filledCorrection(t, ns, 0.5)

	// (a + b) + c
	left := NewCorrection(ns)
	for _, d := range []*Correction{a, b, c} {
		if err := Accumulate(left, d); err != nil {
			t.Fatalf("Accumulate: %v", err)
		}
	}
	// a + (b + c)
	bc := NewCorrection(ns)
	for _, d := range []*Correction{b, c} {
		if err := Accumulate(bc, d); err != nil {
			t.Fatalf("Accumulate: %v", err)
		}
	}
	right := NewCorrection(ns)
	for _, d := range []*Correction{a, bc} {
		if err := Accumulate(right, d); err != nil {
			t.Fatalf("Accumulate: %v", err)
		}
	}

	for l := 0; l < ns.Layers; l++ {
		if !floats.EqualApprox(left.Weights[l].Data(), right.Weights[l].Data(), 1e-12) {
			t.Errorf("layer %d weights: %v vs %v", l, left.Weights[l].Data(), right.Weights[l].Data())
		}
		if !floats.EqualApprox(left.Biases[l].Data(), right.Biases[l].Data(), 1e-12) {
			t.Errorf("layer %d biases: %v vs %v", l, left.Biases[l].Data(), right.Biases[l].Data())
		}
	}
}

func TestAccumulateOrderIndependent(t *testing.T) {
	ns, _ := fixtureNetwork(t)
	deltas := make([]*Correction, 8)
	for i := range deltas {
		deltas[i] = filledCorrection(t, ns, float64(i)*1.7-5)
	}
	sum := func(order []int) *Correction {
		total := NewCorrection(ns)
		for _, i := range order {
			if err := Accumulate(total, deltas[i]); err != nil {
				t.Fatalf("Accumulate: %v", err)
			}
		}
		return total
	}

	inOrder := make([]int, len(deltas))
	for i := range inOrder {
		inOrder[i] = i
	}
	want := sum(inOrder)
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 5; trial++ {
		order := rng.Perm(len(deltas))
		got := sum(order)
		for l := 0; l < ns.Layers; l++ {
			if !floats.EqualApprox(got.Weights[l].Data(), want.Weights[l].Data(), 1e-12) ||
				!floats.EqualApprox(got.Biases[l].Data(), want.Biases[l].Data(), 1e-12) {
				t.Errorf("order %v: layer %d differs from sequential sum", order, l)
			}
		}
	}
}

func TestAccumulateLayerMismatch(t *testing.T) {
	ns, _ := fixtureNetwork(t)
	small, err := NewNetworkStructure([]int{3, 2}, []ActivationFunction{Linear{}}, nil, Argmax{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Accumulate(NewCorrection(ns), NewCorrection(small)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v; want ErrShapeMismatch", err)
	}
}

func TestAccumulateAcceptsEqualLengths(t *testing.T) {
	total := &Correction{Layers: 1, Biases: []*Matrix{NewMatrix(1, 4)}, Weights: []*Matrix{NewMatrix(2, 3)}}
	delta := &Correction{Layers: 1, Biases: []*Matrix{mustMatrix(t, 4, 1, 1, 2, 3, 4)}, Weights: []*Matrix{mustMatrix(t, 3, 2, 1, 1, 1, 1, 1, 1)}}
	if err := Accumulate(total, delta); err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	assertData(t, "biases", total.Biases[0], []float64{1, 2, 3, 4})
}
