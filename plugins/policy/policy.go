// Package policy declares the "policy" category: action-selection strategies
// over a vector of action values.
package policy

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/vk/gridsweep/internal/registry"
)

// Policy is the category's base capability: pick an action index given the
// current action-value estimates.
type Policy interface {
	Select(rng *rand.Rand, values []float64) int
}

// Plugin declares the policy category root and its built-in strategies.
type Plugin struct{}

func (p *Plugin) Name() string { return "policy" }

func (p *Plugin) Register(set *registry.Set) error {
	root := &registry.Declaration{
		Category:   "policy",
		Capability: reflect.TypeOf((*Policy)(nil)).Elem(),
	}
	if err := set.Declare(root); err != nil {
		return err
	}

	declarations := []*registry.Declaration{
		{
			Item:        "greedy",
			Bases:       []*registry.Declaration{root},
			Constructor: NewGreedy,
		},
		{
			Item:        "eps-greedy",
			Bases:       []*registry.Declaration{root},
			Constructor: NewEpsGreedy,
			Defaults:    map[string]any{"eps": 0.1},
		},
	}
	for _, d := range declarations {
		if err := set.Declare(d); err != nil {
			return err
		}
	}

	if err := set.Resolver().Provide("plugins/policy:greedy", NewGreedy); err != nil {
		return err
	}
	return set.Resolver().Provide("plugins/policy:eps-greedy", NewEpsGreedy)
}

// Greedy always picks the highest-valued action, breaking ties by the lowest
// index.
type Greedy struct{}

func NewGreedy(args []any, kwargs map[string]any) (Policy, error) {
	return &Greedy{}, nil
}

func (g *Greedy) Select(rng *rand.Rand, values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// EpsGreedy explores a uniformly random action with probability eps and is
// greedy otherwise.
type EpsGreedy struct {
	eps    float64
	greedy Greedy
}

func NewEpsGreedy(args []any, kwargs map[string]any) (Policy, error) {
	raw, ok := kwargs["eps"]
	if !ok {
		return nil, fmt.Errorf("missing keyword argument %q", "eps")
	}
	var eps float64
	switch v := raw.(type) {
	case int:
		eps = float64(v)
	case float64:
		eps = v
	default:
		return nil, fmt.Errorf("keyword argument %q: expected a number, got %T", "eps", raw)
	}
	if eps < 0 || eps > 1 {
		return nil, fmt.Errorf("keyword argument %q: %v is outside [0, 1]", "eps", eps)
	}
	return &EpsGreedy{eps: eps}, nil
}

func (e *EpsGreedy) Select(rng *rand.Rand, values []float64) int {
	if rng.Float64() < e.eps {
		return rng.IntN(len(values))
	}
	return e.greedy.Select(rng, values)
}
