// Package rlexp provides the built-in reinforcement-learning experiment: it
// assembles an env, a policy, and an agent from the registry set, trains for
// a configured number of episodes, and writes the per-episode returns next
// to the task's log.
package rlexp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/experiment"
	"github.com/vk/gridsweep/internal/ident"
	"github.com/vk/gridsweep/internal/registry"
	"github.com/vk/gridsweep/plugins/agent"
	"github.com/vk/gridsweep/plugins/env"
	"github.com/vk/gridsweep/plugins/policy"
)

// EntryPoint is the key documents use as experiment_cls to run this package.
const EntryPoint = "plugins/rlexp:rl"

// returnsFileName holds the per-episode returns as a JSON array.
const returnsFileName = "returns.json"

// Plugin provides the run callback under the rlexp entry point.
type Plugin struct{}

func (p *Plugin) Name() string { return "rlexp" }

func (p *Plugin) Register(set *registry.Set) error {
	return set.Resolver().Provide(EntryPoint, Runner(set))
}

// Runner builds the run callback bound to a registry set. Every task makes
// fresh env/policy/agent instances, so no state leaks between tasks.
func Runner(set *registry.Set) experiment.RunFunc {
	return func(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error {
		logger := ctxlog.FromContext(ctx)

		environment, err := makeEnv(set, variants)
		if err != nil {
			return err
		}
		pol, err := makePolicy(set, variants)
		if err != nil {
			return err
		}
		learner, err := makeAgent(set, variants, pol, environment)
		if err != nil {
			return err
		}

		episodes, err := intParam(runParams, "episodes", 100)
		if err != nil {
			return err
		}
		maxSteps, err := intParam(runParams, "max_steps", 1000)
		if err != nil {
			return err
		}

		rng := rand.New(rand.NewPCG(seed, uint64(runIndex)))
		logger.Debug("Training starting.", "episodes", episodes, "max_steps", maxSteps, "seed", seed)

		returns := make([]float64, episodes)
		for episode := 0; episode < episodes; episode++ {
			returns[episode] = runEpisode(rng, environment, learner, maxSteps)
		}

		if err := writeReturns(outputDir, returns); err != nil {
			return err
		}

		logger.Info("Training finished.", "episodes", episodes, "final_return", returns[episodes-1])
		return nil
	}
}

// runEpisode plays one episode to termination (or the step cap) and returns
// the undiscounted sum of rewards.
func runEpisode(rng *rand.Rand, environment env.Env, learner agent.Agent, maxSteps int) float64 {
	state := environment.Reset(rng)
	total := 0.0

	for step := 0; step < maxSteps; step++ {
		action := learner.Act(rng, state)
		next, reward, done := environment.Step(rng, state, action)
		learner.Learn(rng, state, action, next, reward, done)
		total += reward
		if done {
			break
		}
		state = next
	}
	return total
}

func makeEnv(set *registry.Set, variants map[ident.CategoryID]config.Variant) (env.Env, error) {
	obj, err := makeVariant(set, variants, "env", nil)
	if err != nil {
		return nil, err
	}
	environment, ok := obj.(env.Env)
	if !ok {
		return nil, fmt.Errorf("category \"env\" produced %T, which is not an environment", obj)
	}
	return environment, nil
}

func makePolicy(set *registry.Set, variants map[ident.CategoryID]config.Variant) (policy.Policy, error) {
	obj, err := makeVariant(set, variants, "policy", nil)
	if err != nil {
		return nil, err
	}
	pol, ok := obj.(policy.Policy)
	if !ok {
		return nil, fmt.Errorf("category \"policy\" produced %T, which is not a policy", obj)
	}
	return pol, nil
}

func makeAgent(set *registry.Set, variants map[ident.CategoryID]config.Variant, pol policy.Policy, environment env.Env) (agent.Agent, error) {
	obj, err := makeVariant(set, variants, "agent", []any{pol, environment})
	if err != nil {
		return nil, err
	}
	learner, ok := obj.(agent.Agent)
	if !ok {
		return nil, fmt.Errorf("category \"agent\" produced %T, which is not an agent", obj)
	}
	return learner, nil
}

// makeVariant builds a fresh instance of the task's variant for a category.
func makeVariant(set *registry.Set, variants map[ident.CategoryID]config.Variant, category ident.CategoryID, args []any) (any, error) {
	variant, ok := variants[category]
	if !ok {
		return nil, fmt.Errorf("experiment requires category %q, which the document does not configure", category)
	}
	reg, err := set.Category(string(category))
	if err != nil {
		return nil, err
	}
	return reg.Make(string(variant.Item), args, variant.Kwargs)
}

func intParam(runParams map[string]any, key string, fallback int) (int, error) {
	raw, ok := runParams[key]
	if !ok {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("run parameter %q: expected a number, got %T", key, raw)
	}
}

func writeReturns(outputDir string, returns []float64) error {
	payload, err := json.Marshal(returns)
	if err != nil {
		return err
	}
	path := filepath.Join(outputDir, returnsFileName)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write returns to %s: %w", path, err)
	}
	return nil
}
