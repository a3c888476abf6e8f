package keywords

import (
	"math/rand/v2"
	"sync"

	"github.com/justestif/go-mood-tunes/internal/emotion"
)

// Selector picks one keyword for an emotion at random.
type Selector struct {
	table Table

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector over table. A nil rng uses a randomly
// seeded PCG source; pass a seeded one for reproducible picks.
func NewSelector(table Table, rng *rand.Rand) *Selector {
	if table == nil {
		table = DefaultTable()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{table: table, rng: rng}
}

// Select returns a uniformly chosen keyword from the label's candidates.
func (s *Selector) Select(label emotion.Label) string {
	candidates := s.table.Candidates(label)

	s.mu.Lock()
	i := s.rng.IntN(len(candidates))
	s.mu.Unlock()

	return candidates[i]
}
