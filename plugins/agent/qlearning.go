package agent

import "math/rand/v2"

// QLearning is the off-policy learner: targets are built from the best next
// action regardless of what the policy would pick.
type QLearning struct {
	*tdBase
}

// NewQLearning builds a Q-learning agent from positional [policy, env]
// arguments and alpha/gamma keyword arguments.
func NewQLearning(args []any, kwargs map[string]any) (Agent, error) {
	base, err := newTDBase(args, kwargs)
	if err != nil {
		return nil, err
	}
	return &QLearning{tdBase: base}, nil
}

func (a *QLearning) Learn(rng *rand.Rand, state, action, next int, reward float64, done bool) {
	target := reward
	if !done {
		best := a.q[next][0]
		for _, v := range a.q[next][1:] {
			if v > best {
				best = v
			}
		}
		target += a.gamma * best
	}
	a.q[state][action] += a.alpha * (target - a.q[state][action])
}
