package env

import (
	"fmt"
	"math/rand/v2"
)

// Gridworld is a deterministic grid with the start in the top-left corner and
// the goal in the bottom-right. Actions are up, right, down, left; bumping a
// wall keeps the state and costs the usual step penalty.
type Gridworld struct {
	width  int
	height int
}

// NewGridworld builds a gridworld from width/height keyword arguments.
func NewGridworld(args []any, kwargs map[string]any) (Env, error) {
	width, err := intKwarg(kwargs, "width")
	if err != nil {
		return nil, err
	}
	height, err := intKwarg(kwargs, "height")
	if err != nil {
		return nil, err
	}
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("gridworld needs at least a 2x2 grid, got %dx%d", width, height)
	}
	return &Gridworld{width: width, height: height}, nil
}

func (g *Gridworld) States() int  { return g.width * g.height }
func (g *Gridworld) Actions() int { return 4 }

func (g *Gridworld) Reset(rng *rand.Rand) int { return 0 }

func (g *Gridworld) Step(rng *rand.Rand, state, action int) (int, float64, bool) {
	x, y := state%g.width, state/g.width

	switch action {
	case 0: // up
		if y > 0 {
			y--
		}
	case 1: // right
		if x < g.width-1 {
			x++
		}
	case 2: // down
		if y < g.height-1 {
			y++
		}
	case 3: // left
		if x > 0 {
			x--
		}
	}

	next := y*g.width + x
	if next == g.States()-1 {
		return next, 1.0, true
	}
	return next, -0.01, false
}
