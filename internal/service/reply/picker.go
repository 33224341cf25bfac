package reply

import (
	"math/rand/v2"
	"sync"
)

// Picker chooses an index in [0, n). n is always positive.
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// seededPicker is reproducible for a given seed. rand.Rand is not safe for
// concurrent use, so calls are serialised.
type seededPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (p *seededPicker) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// NewPicker returns an unseeded picker for seed 0, otherwise a deterministic
// one.
func NewPicker(seed uint64) Picker {
	if seed == 0 {
		return globalPicker{}
	}
	return &seededPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// FirstPicker always returns 0. Tests use it to pin template choice.
type FirstPicker struct{}

func (FirstPicker) IntN(int) int { return 0 }
