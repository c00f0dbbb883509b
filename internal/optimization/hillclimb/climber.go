// Package hillclimb implements the local search: single-vertex unit moves
// judged only by the constraints touching the moved vertex, never letting
// dislikes get worse.
package hillclimb

import (
	"context"

	"github.com/copyleftdev/brainwall/internal/geometry"
	"github.com/copyleftdev/brainwall/internal/optimization"
	"github.com/copyleftdev/brainwall/internal/optimization/evaluator"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// StrategyName identifies the climber in observer events and metrics.
const StrategyName = "hillclimb"

const ctxCheckMask = 1023

var directions = [4]geometry.Point{
	{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1},
}

// Config contains configuration for the climber.
type Config struct {
	// Cycles is the number of attempted moves. Zero leaves the pose untouched.
	Cycles int
	// Seed for the default random source; 0 picks a time-based seed.
	Seed int64
	// Rand overrides the random source.
	Rand optimization.Rand
}

// DefaultConfig returns a configuration with a practical cycle count.
func DefaultConfig() Config {
	return Config{Cycles: 1_000_000}
}

// Climber implements optimization.Strategy.
type Climber struct {
	cfg      Config
	problem  *problem.Problem
	pose     problem.Pose
	local    *evaluator.Local
	rng      optimization.Rand
	observer optimization.Observer
	dislikes int64
}

var _ optimization.Strategy = (*Climber)(nil)

// Validate reports whether New would accept p, pose and cfg.
func Validate(p *problem.Problem, pose *problem.Pose, cfg Config) error {
	if err := optimization.InvalidInput("hillclimb", p, pose); err != nil {
		return err
	}
	if cfg.Cycles < 0 {
		return optimization.NewErrorf("negative cycle count %d", cfg.Cycles).
			WithComponent("hillclimb").WithOperation("new")
	}
	return nil
}

// New creates a climber working on a copy of pose. Globalist mode is enabled
// when the pose claims a GLOBALIST bonus.
func New(p *problem.Problem, pose *problem.Pose, cfg Config, observer optimization.Observer) (*Climber, error) {
	if err := Validate(p, pose, cfg); err != nil {
		return nil, err
	}
	rng := cfg.Rand
	if rng == nil {
		rng = optimization.NewRand(cfg.Seed)
	}
	if observer == nil {
		observer = optimization.NopObserver{}
	}
	work := pose.Clone()
	return &Climber{
		cfg:      cfg,
		problem:  p,
		pose:     work,
		local:    evaluator.NewLocal(p, work.Uses(problem.Globalist)),
		rng:      rng,
		observer: observer,
		dislikes: evaluator.PoseDislikes(p.Hole, work),
	}, nil
}

// Globalist reports whether the aggregate stretch rule is in force.
func (c *Climber) Globalist() bool {
	return c.local.Globalist()
}

// Best returns the current pose; the climber never accepts a worse one.
func (c *Climber) Best() *optimization.Solution {
	return c.solution()
}

func (c *Climber) solution() *optimization.Solution {
	residual := c.local.Total(c.pose.Vertices)
	return &optimization.Solution{
		Pose:     c.pose.Clone(),
		Dislikes: c.dislikes,
		Score:    -float64(c.dislikes),
		Residual: float64(residual),
		Feasible: residual == 0,
	}
}

// Optimize runs the configured number of cycles. Result.Accepted is the number
// of moves kept. On cancellation the pose reached so far is returned together
// with ctx.Err().
func (c *Climber) Optimize(ctx context.Context) (*optimization.Result, error) {
	res := &optimization.Result{Rounds: 1}
	vertices := c.pose.Vertices
	n := len(vertices)

	var err error
	for cycle := 0; cycle < c.cfg.Cycles && n > 0; cycle++ {
		if cycle&ctxCheckMask == 0 {
			if err = ctx.Err(); err != nil {
				break
			}
		}
		res.Moves++

		a := c.rng.Intn(n)
		d := directions[c.rng.Intn(len(directions))]

		var penalty int64
		if !c.local.Satisfied(vertices, a) {
			penalty = c.local.Violations(vertices, a)
		}
		vertices[a] = vertices[a].Add(d)

		ok := c.local.Satisfied(vertices, a) ||
			(penalty > 0 && c.local.Violations(vertices, a) <= penalty)
		if ok {
			dislikes := evaluator.PoseDislikes(c.problem.Hole, c.pose)
			if dislikes <= c.dislikes {
				improved := dislikes < c.dislikes
				c.dislikes = dislikes
				res.Accepted++
				if improved {
					c.observer.OnImprovement(ctx, StrategyName, c.solution())
				}
				continue
			}
		}
		vertices[a] = vertices[a].Sub(d)
	}

	res.Best = c.solution()
	c.observer.OnRound(ctx, StrategyName, optimization.RoundStats{
		Round:     0,
		Moves:     res.Moves,
		Accepted:  res.Accepted,
		BestScore: res.Best.Score,
	})
	c.observer.OnComplete(ctx, StrategyName, res)
	return res, err
}
