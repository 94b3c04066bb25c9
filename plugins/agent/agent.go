// Package agent declares the "agent" category: tabular temporal-difference
// learners. Constructors take the policy and the environment as positional
// arguments, in that order.
package agent

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/vk/gridsweep/internal/registry"
	"github.com/vk/gridsweep/plugins/env"
	"github.com/vk/gridsweep/plugins/policy"
)

// Agent is the category's base capability.
type Agent interface {
	// Act picks an action for the given state.
	Act(rng *rand.Rand, state int) int
	// Learn folds one observed transition into the agent's estimates.
	Learn(rng *rand.Rand, state, action, next int, reward float64, done bool)
}

// Plugin declares the agent category root and its built-in learners.
type Plugin struct{}

func (p *Plugin) Name() string { return "agent" }

func (p *Plugin) Register(set *registry.Set) error {
	root := &registry.Declaration{
		Category:   "agent",
		Capability: reflect.TypeOf((*Agent)(nil)).Elem(),
	}
	if err := set.Declare(root); err != nil {
		return err
	}

	// td is the shared intermediate specialization: both learners carry the
	// same Q table and hyperparameters, differing only in the update rule.
	td := &registry.Declaration{
		Item:     "td",
		Bases:    []*registry.Declaration{root},
		Abstract: true,
	}
	if err := set.Declare(td); err != nil {
		return err
	}

	declarations := []*registry.Declaration{
		{
			Item:        "q-learning",
			Bases:       []*registry.Declaration{td},
			Constructor: NewQLearning,
			Defaults:    map[string]any{"alpha": 0.5, "gamma": 0.9},
		},
		{
			Item:        "sarsa",
			Bases:       []*registry.Declaration{td},
			Constructor: NewSarsa,
			Defaults:    map[string]any{"alpha": 0.5, "gamma": 0.9},
		},
	}
	for _, d := range declarations {
		if err := set.Declare(d); err != nil {
			return err
		}
	}

	if err := set.Resolver().Provide("plugins/agent:q-learning", NewQLearning); err != nil {
		return err
	}
	return set.Resolver().Provide("plugins/agent:sarsa", NewSarsa)
}

// tdBase holds the state shared by the tabular learners.
type tdBase struct {
	policy policy.Policy
	q      [][]float64
	alpha  float64
	gamma  float64
}

// newTDBase unpacks the positional [policy, env] arguments and the
// alpha/gamma keyword arguments common to every learner.
func newTDBase(args []any, kwargs map[string]any) (*tdBase, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected positional arguments [policy, env], got %d values", len(args))
	}
	pol, ok := args[0].(policy.Policy)
	if !ok {
		return nil, fmt.Errorf("positional argument 0: expected a policy, got %T", args[0])
	}
	environment, ok := args[1].(env.Env)
	if !ok {
		return nil, fmt.Errorf("positional argument 1: expected an env, got %T", args[1])
	}

	alpha, err := floatKwarg(kwargs, "alpha")
	if err != nil {
		return nil, err
	}
	gamma, err := floatKwarg(kwargs, "gamma")
	if err != nil {
		return nil, err
	}

	q := make([][]float64, environment.States())
	for i := range q {
		q[i] = make([]float64, environment.Actions())
	}
	return &tdBase{policy: pol, q: q, alpha: alpha, gamma: gamma}, nil
}

func (b *tdBase) Act(rng *rand.Rand, state int) int {
	return b.policy.Select(rng, b.q[state])
}

func floatKwarg(kwargs map[string]any, key string) (float64, error) {
	raw, ok := kwargs[key]
	if !ok {
		return 0, fmt.Errorf("missing keyword argument %q", key)
	}
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("keyword argument %q: expected a number, got %T", key, raw)
	}
}
