package neuralnet

import "errors"

var (
	// ErrInvalidFunctionIdentifier is returned for unknown objective, presentation or activation ids.
	ErrInvalidFunctionIdentifier = errors.New("invalid function identifier")
	// ErrShapeMismatch is returned when matrix shapes do not agree.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrIndexOutOfRange is returned for lookups outside the data set.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNumericDegeneracy is returned when a loss evaluates to NaN or Inf.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
	// ErrNoOptimisedError is returned by objectives without a simplified output gradient.
	ErrNoOptimisedError = errors.New("no optimised error for objective")
	ErrInvalidDropout   = errors.New("dropout rate must be in [0, 1)")
	ErrInvalidStructure = errors.New("invalid network structure")
)
