package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/proxyscout/proxyscout/internal/core"
)

const (
	// MinCount and MaxCount bound how many proxies a caller may request.
	MinCount = 1
	MaxCount = 50
)

// ErrCountOutOfRange is returned by ValidateCount.
var ErrCountOutOfRange = errors.New("count out of range")

// ValidateCount enforces the caller-facing bound on requested proxies.
func ValidateCount(count int) error {
	if count < MinCount || count > MaxCount {
		return fmt.Errorf("%w: amount must be between %d and %d, got %d", ErrCountOutOfRange, MinCount, MaxCount, count)
	}
	return nil
}

// RandSource supplies the permutation used by the Selector.
type RandSource interface {
	Shuffle(n int, swap func(i, j int))
}

type globalSource struct{}

func (globalSource) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// NewSeededSource returns a deterministic source for reproducible sampling.
func NewSeededSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Selector draws a bounded random sample of candidates.
type Selector struct {
	Rand RandSource
}

// Select returns up to n distinct positions of candidates in random order.
// The input slice is never modified.
func (s *Selector) Select(candidates []core.Candidate, n int) []core.Candidate {
	if n <= 0 || len(candidates) == 0 {
		return []core.Candidate{}
	}

	pool := make([]core.Candidate, len(candidates))
	copy(pool, candidates)
	s.source().Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n:n]
}

func (s *Selector) source() RandSource {
	if s != nil && s.Rand != nil {
		return s.Rand
	}
	return globalSource{}
}
