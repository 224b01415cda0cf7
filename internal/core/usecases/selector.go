package usecases

import (
	"fmt"
	"math/rand/v2"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// RandomSource draws an index in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultRandom is backed by the math/rand/v2 global generator.
var DefaultRandom RandomSource = globalSource{}

// Select picks candidates according to strategy.
// candidates must be non-empty and strategy one of the known values.
// Anything else is a caller bug and panics.
func Select(candidates []domain.PlaceCandidate, strategy domain.Strategy, rnd RandomSource) []domain.PlaceCandidate {
	if len(candidates) == 0 {
		panic("usecases: Select called with no candidates")
	}

	switch strategy {
	case domain.StrategyAll:
		out := make([]domain.PlaceCandidate, len(candidates))
		copy(out, candidates)
		return out
	case domain.StrategyRandomOne:
		if rnd == nil {
			rnd = DefaultRandom
		}
		return []domain.PlaceCandidate{candidates[rnd.IntN(len(candidates))]}
	default:
		panic(fmt.Sprintf("usecases: Select called with unknown strategy %q", strategy))
	}
}
