package worker

import "fmt"

// SampleIndex points at one sample: the bundle it lives in and its position
// inside that bundle. It does not own the sample.
type SampleIndex struct {
	Bundle int
	Index  int
}

func (s SampleIndex) String() string {
	return fmt.Sprintf("(%d, %d)", s.Bundle, s.Index)
}
