package neuralnet

import (
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the uniform random capability used for dropout masks and weight
// initialisation. It satisfies the source type expected by gonum's distuv.
type Source interface {
	Uint64() uint64
	Seed(seed uint64)
}

// NewSource returns a seeded Source that is safe for concurrent use.
func NewSource(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Uint64()
}

func (s *lockedSource) Seed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Seed(int64(seed))
}

// dropoutMask draws an inverted-dropout mask shaped like m: dropped units are
// 0, kept units are 1/(1-rate).
func dropoutMask(m *Matrix, rate float64, src Source) *Matrix {
	mask := NewMatrix(m.rows, m.columns)
	if rate == 0 {
		mask.Fill(1)
		return mask
	}
	keep := 1 - rate
	draw := distuv.Bernoulli{P: keep, Src: src}
	for i := range mask.data {
		mask.data[i] = draw.Rand() / keep
	}
	return mask
}
