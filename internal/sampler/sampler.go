// Package sampler picks the next word, preferring words not seen recently.
package sampler

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/samber/lo"
)

// ErrNoCandidates is returned when there is nothing to pick from.
var ErrNoCandidates = errors.New("no candidate words")

const (
	// uniformThreshold is the candidate count at or below which recency is
	// ignored, so a sparse range never starves.
	uniformThreshold = 5

	freshWeight  = 20
	recentWeight = 1
)

// Sampler draws words using an injected random source.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Sampler over src. A nil src seeds from the clock.
func New(src rand.Source) *Sampler {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17)
	}
	return &Sampler{rng: rand.New(src)}
}

// Pick chooses one candidate. With five or fewer candidates the draw is
// uniform; otherwise candidates absent from recent weigh 20 and those in
// recent weigh 1.
func (s *Sampler) Pick(candidates, recent []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Pick(s.rng, candidates, recent)
}

// Pick is the stateless form of Sampler.Pick.
func Pick(rng *rand.Rand, candidates, recent []string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	if len(candidates) <= uniformThreshold {
		return candidates[rng.IntN(len(candidates))], nil
	}

	seen := lo.Associate(recent, func(w string) (string, struct{}) { return w, struct{}{} })
	weights := make([]int, len(candidates))
	total := 0
	for i, c := range candidates {
		w := freshWeight
		if _, ok := seen[c]; ok {
			w = recentWeight
		}
		weights[i] = w
		total += w
	}

	draw := rng.IntN(total)
	for i, w := range weights {
		if draw < w {
			return candidates[i], nil
		}
		draw -= w
	}
	return candidates[len(candidates)-1], nil
}
