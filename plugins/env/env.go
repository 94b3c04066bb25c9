// Package env declares the "env" category: tabular reinforcement-learning
// environments with a discrete state and action space.
package env

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/vk/gridsweep/internal/registry"
)

// Env is the category's base capability. State and action spaces are finite
// and indexed from zero.
type Env interface {
	States() int
	Actions() int
	// Reset starts a fresh episode and returns the initial state.
	Reset(rng *rand.Rand) int
	// Step applies an action and returns the next state, the reward, and
	// whether the episode terminated.
	Step(rng *rand.Rand, state, action int) (next int, reward float64, done bool)
}

// Plugin declares the env category root and its built-in environments.
type Plugin struct{}

func (p *Plugin) Name() string { return "env" }

func (p *Plugin) Register(set *registry.Set) error {
	root := &registry.Declaration{
		Category:   "env",
		Capability: reflect.TypeOf((*Env)(nil)).Elem(),
	}
	if err := set.Declare(root); err != nil {
		return err
	}

	declarations := []*registry.Declaration{
		{
			Item:        "gridworld",
			Bases:       []*registry.Declaration{root},
			Constructor: NewGridworld,
			Defaults:    map[string]any{"width": 4, "height": 4},
		},
		{
			Item:        "bandit",
			Bases:       []*registry.Declaration{root},
			Constructor: NewBandit,
			Defaults:    map[string]any{"arms": 10},
		},
	}
	for _, d := range declarations {
		if err := set.Declare(d); err != nil {
			return err
		}
	}

	// The same constructors double as entry points, so documents can bind
	// them under item ids of their own choosing.
	if err := set.Resolver().Provide("plugins/env:gridworld", NewGridworld); err != nil {
		return err
	}
	return set.Resolver().Provide("plugins/env:bandit", NewBandit)
}

// intKwarg reads an integer keyword argument; config loaders deliver whole
// numbers as int.
func intKwarg(kwargs map[string]any, key string) (int, error) {
	raw, ok := kwargs[key]
	if !ok {
		return 0, fmt.Errorf("missing keyword argument %q", key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("keyword argument %q: expected a number, got %T", key, raw)
	}
}
