package agent

import "math/rand/v2"

// Sarsa is the on-policy learner: targets use the action the policy actually
// samples in the next state.
type Sarsa struct {
	*tdBase
}

// NewSarsa builds a SARSA agent from positional [policy, env] arguments and
// alpha/gamma keyword arguments.
func NewSarsa(args []any, kwargs map[string]any) (Agent, error) {
	base, err := newTDBase(args, kwargs)
	if err != nil {
		return nil, err
	}
	return &Sarsa{tdBase: base}, nil
}

func (a *Sarsa) Learn(rng *rand.Rand, state, action, next int, reward float64, done bool) {
	target := reward
	if !done {
		nextAction := a.policy.Select(rng, a.q[next])
		target += a.gamma * a.q[next][nextAction]
	}
	a.q[state][action] += a.alpha * (target - a.q[state][action])
}
