package neuralnet

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestSGDApplyInvalidBatchSize(t *testing.T) {
	ns, state := fixtureNetwork(t)
	sgd := &SGD{LearningRate: 0.1}
	// Apply must check batchSize before touching the parameters.
	if err := sgd.Apply(state, NewCorrection(ns), 0); err == nil {
		t.Error("SGD.Apply with batchSize=0 did not return error")
	}
	if err := sgd.Apply(state, NewCorrection(ns), -1); err == nil {
		t.Error("SGD.Apply with batchSize=-1 did not return error")
	}
}

func TestSGDApplyLayerMismatch(t *testing.T) {
	_, state := fixtureNetwork(t)
	other, err := NewNetworkStructure([]int{3, 2}, []ActivationFunction{Linear{}}, nil, Argmax{})
	if err != nil {
		t.Fatal(err)
	}
	if err := (&SGD{LearningRate: 0.1}).Apply(state, NewCorrection(other), 1); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v; want ErrShapeMismatch", err)
	}
}

func TestSGDApplyValidBatchSize(t *testing.T) {
	const epsilon = 1e-12

	ns, err := NewNetworkStructure([]int{1, 1}, []ActivationFunction{Linear{}}, nil, Argmax{})
	if err != nil {
		t.Fatal(err)
	}
	state := NewNetworkState(ns)
	state.Weights[1].Fill(1.0)
	state.Biases[1].Fill(0.5)

	correction := NewCorrection(ns)
	correction.Weights[1].Fill(0.4)
	correction.Biases[1].Fill(0.2)

	sgd := &SGD{LearningRate: 0.1, L2: 0.01, Decay: 0.5}
	batchSize := 2
	if err := sgd.Apply(state, correction, batchSize); err != nil {
		t.Fatalf("SGD.Apply returned an unexpected error: %v", err)
	}

	// w <- w*(1 - lr*l2) - lr*grad/batch
	wantWeight := 1.0*(1-0.1*0.01) - 0.1*0.4/2
	wantBias := 0.5*(1-0.1*0.01) - 0.1*0.2/2
	if got := state.Weights[1].At(0, 0); !scalar.EqualWithinAbs(got, wantWeight, epsilon) {
		t.Errorf("weight = %v; want %v", got, wantWeight)
	}
	if got := state.Biases[1].At(0, 0); !scalar.EqualWithinAbs(got, wantBias, epsilon) {
		t.Errorf("bias = %v; want %v", got, wantBias)
	}
	if !scalar.EqualWithinAbs(sgd.LearningRate, 0.05, epsilon) {
		t.Errorf("decayed learning rate = %v; want 0.05", sgd.LearningRate)
	}
}
