package env

import (
	"fmt"
	"math/rand/v2"
)

// Bandit is a single-state multi-armed bandit. Each pull ends the episode;
// arm means are drawn once per episode from a unit normal unless fixed via
// the "means" keyword argument.
type Bandit struct {
	arms  int
	means []float64
}

// NewBandit builds a bandit from the "arms" keyword argument, optionally with
// fixed per-arm reward means under "means".
func NewBandit(args []any, kwargs map[string]any) (Env, error) {
	arms, err := intKwarg(kwargs, "arms")
	if err != nil {
		return nil, err
	}
	if arms < 2 {
		return nil, fmt.Errorf("bandit needs at least 2 arms, got %d", arms)
	}

	b := &Bandit{arms: arms}
	if raw, ok := kwargs["means"]; ok {
		values, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("keyword argument \"means\": expected a list, got %T", raw)
		}
		if len(values) != arms {
			return nil, fmt.Errorf("keyword argument \"means\": %d values for %d arms", len(values), arms)
		}
		for _, v := range values {
			switch n := v.(type) {
			case int:
				b.means = append(b.means, float64(n))
			case float64:
				b.means = append(b.means, n)
			default:
				return nil, fmt.Errorf("keyword argument \"means\": expected numbers, got %T", v)
			}
		}
	}
	return b, nil
}

func (b *Bandit) States() int  { return 1 }
func (b *Bandit) Actions() int { return b.arms }

func (b *Bandit) Reset(rng *rand.Rand) int { return 0 }

func (b *Bandit) Step(rng *rand.Rand, state, action int) (int, float64, bool) {
	mean := rng.NormFloat64()
	if b.means != nil {
		mean = b.means[action]
	}
	return 0, mean + rng.NormFloat64()*0.1, true
}
