// Package annealing implements the global search: single-vertex moves over the
// whole figure accepted by a simulated-annealing rule on the global score.
package annealing

import (
	"context"
	"math"

	"github.com/copyleftdev/brainwall/internal/geometry"
	"github.com/copyleftdev/brainwall/internal/optimization"
	"github.com/copyleftdev/brainwall/internal/optimization/evaluator"
	"github.com/copyleftdev/brainwall/internal/optimization/proximity"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// StrategyName identifies the annealer in observer events and metrics.
const StrategyName = "anneal"

// ctxCheckMask sets how often the inner loop polls for cancellation.
const ctxCheckMask = 1023

// DefaultMaxGridCells bounds the proximity field when Config.MaxGridCells is zero.
const DefaultMaxGridCells = 1 << 20

var directions = [8]geometry.Point{
	{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1},
	{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1}, {X: -1, Y: 1},
}

// Config contains configuration for the annealer. Zero values select defaults.
type Config struct {
	// MoveBudget is the length of one inner loop; it also sets the cooling horizon.
	MoveBudget int
	// Patience is how many moves an inner loop may go without improving its best score.
	Patience int
	// MaxRounds caps the number of inner loops; 0 means unbounded.
	MaxRounds int
	// MaxMoves caps the total number of moves across rounds; 0 means unbounded.
	MaxMoves int
	// RelaxationRounds bounds the proximity field build.
	RelaxationRounds int
	// MaxGridCells caps the size of the proximity field; poses spanning a
	// larger box are rejected.
	MaxGridCells int
	// Weights of the global score; the zero value selects evaluator.DefaultWeights.
	Weights evaluator.Weights
	// Seed for the default random source; 0 picks a time-based seed.
	Seed int64
	// Rand overrides the random source.
	Rand optimization.Rand
}

// DefaultConfig returns the configuration the annealer is tuned for.
func DefaultConfig() Config {
	return Config{
		MoveBudget:       3_000_000,
		Patience:         30_000,
		RelaxationRounds: proximity.DefaultRounds,
		MaxGridCells:     DefaultMaxGridCells,
		Weights:          evaluator.DefaultWeights(),
	}
}

// Annealer implements optimization.Strategy.
type Annealer struct {
	cfg      Config
	problem  *problem.Problem
	initial  problem.Pose
	field    *proximity.Field
	eval     *evaluator.Global
	rng      optimization.Rand
	observer optimization.Observer

	// best feasible solution recorded so far
	best      *optimization.Solution
	bestScore float64

	// best scoring pose regardless of feasibility
	near      []geometry.Point
	nearScore evaluator.Score
}

var _ optimization.Strategy = (*Annealer)(nil)

// Validate reports whether New would accept p, pose and cfg. It does not
// build the proximity field.
func Validate(p *problem.Problem, pose *problem.Pose, cfg Config) error {
	if err := optimization.InvalidInput("annealing", p, pose); err != nil {
		return err
	}
	if cfg.MaxRounds < 0 || cfg.MaxMoves < 0 || cfg.MaxGridCells < 0 {
		return optimization.NewErrorf("negative limits: max_rounds=%d max_moves=%d max_grid_cells=%d",
			cfg.MaxRounds, cfg.MaxMoves, cfg.MaxGridCells).
			WithComponent("annealing").WithOperation("new")
	}
	limit := int64(cfg.MaxGridCells)
	if limit == 0 {
		limit = DefaultMaxGridCells
	}
	rect := fieldRect(p, pose)
	if !gridFits(rect, limit) {
		return optimization.NewErrorf("proximity grid %s-%s exceeds %d cells", rect.Min, rect.Max, limit).
			WithComponent("annealing").WithOperation("new")
	}
	return nil
}

func fieldRect(p *problem.Problem, pose *problem.Pose) geometry.Rect {
	return geometry.Bounds(p.Hole, p.Figure.Vertices, pose.Vertices)
}

// gridFits reports whether r holds at most limit grid points.
func gridFits(r geometry.Rect, limit int64) bool {
	w, h := r.Max.X-r.Min.X, r.Max.Y-r.Min.Y
	// negative spans mean the subtraction overflowed
	if w < 0 || h < 0 || w >= limit || h >= limit {
		return false
	}
	return w+1 <= limit/(h+1)
}

// New creates an annealer that starts from pose. The proximity field is built
// here, once, over the bounding box of the hole, the original figure and pose.
// Boxes above cfg.MaxGridCells grid points are rejected before any allocation.
func New(p *problem.Problem, pose *problem.Pose, cfg Config, observer optimization.Observer) (*Annealer, error) {
	if err := Validate(p, pose, cfg); err != nil {
		return nil, err
	}
	if cfg.MoveBudget < 1 {
		cfg.MoveBudget = 3_000_000
	}
	if cfg.Patience < 1 {
		cfg.Patience = 30_000
	}
	if cfg.Weights == (evaluator.Weights{}) {
		cfg.Weights = evaluator.DefaultWeights()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = optimization.NewRand(cfg.Seed)
	}
	if observer == nil {
		observer = optimization.NopObserver{}
	}

	field := proximity.Build(p.Hole, fieldRect(p, pose), cfg.RelaxationRounds)

	return &Annealer{
		cfg:       cfg,
		problem:   p,
		initial:   pose.Clone(),
		field:     field,
		eval:      evaluator.NewGlobal(p, field, cfg.Weights),
		rng:       rng,
		observer:  observer,
		bestScore: math.Inf(-1),
	}, nil
}

// Field returns the proximity field built for this run.
func (a *Annealer) Field() *proximity.Field {
	return a.field
}

// Best returns a copy of the best feasible solution recorded so far, or nil.
func (a *Annealer) Best() *optimization.Solution {
	return a.best.Clone()
}

// Optimize runs rounds until a feasible pose with a non-negative score is
// recorded, a round or move cap is reached, or ctx is done. On cancellation
// the best-so-far result is returned together with ctx.Err().
func (a *Annealer) Optimize(ctx context.Context) (*optimization.Result, error) {
	res := &optimization.Result{}
	a.near = append([]geometry.Point(nil), a.initial.Vertices...)
	a.nearScore = a.eval.Evaluate(a.near)
	a.consider(ctx, a.near, a.nearScore)

	if len(a.initial.Vertices) == 0 {
		return a.finish(ctx, res), nil
	}

	var err error
	for round := 0; a.cfg.MaxRounds == 0 || round < a.cfg.MaxRounds; round++ {
		if err = ctx.Err(); err != nil {
			break
		}
		stats, stop := a.round(ctx, round, res)
		res.Rounds++
		a.observer.OnRound(ctx, StrategyName, stats)

		if a.best != nil && a.bestScore >= 0 {
			res.Converged = true
			break
		}
		if stop {
			err = ctx.Err()
			break
		}
	}
	return a.finish(ctx, res), err
}

// start picks the pose a round begins from.
func (a *Annealer) start() []geometry.Point {
	if a.best != nil {
		return append([]geometry.Point(nil), a.best.Pose.Vertices...)
	}
	return append([]geometry.Point(nil), a.near...)
}

// round runs one inner loop. It reports stop when the move cap is reached or
// ctx is done.
func (a *Annealer) round(ctx context.Context, round int, res *optimization.Result) (optimization.RoundStats, bool) {
	now := a.start()
	n := len(now)
	cur := a.eval.Evaluate(now)
	stats := optimization.RoundStats{Round: round, BestScore: cur.Value}
	update := a.cfg.Patience

	for cnt := 0; cnt < a.cfg.MoveBudget; cnt++ {
		if update < 0 {
			break
		}
		update--
		if a.cfg.MaxMoves > 0 && res.Moves >= a.cfg.MaxMoves {
			return stats, true
		}
		if res.Moves&ctxCheckMask == 0 && ctx.Err() != nil {
			return stats, true
		}
		res.Moves++
		stats.Moves++

		t := a.rng.Intn(n)
		d := directions[a.rng.Intn(len(directions))]
		now[t] = now[t].Add(d)
		if !a.field.InBounds(now[t]) {
			now[t] = now[t].Sub(d)
			continue
		}

		progress := float64(cnt) / float64(a.cfg.MoveBudget)
		cool := (1 - progress) * (1 - progress)
		next := a.eval.Evaluate(now)
		if cur.Value-next.Value > float64(a.rng.Intn(1000))*cool/100 {
			now[t] = now[t].Sub(d)
			continue
		}

		cur = next
		res.Accepted++
		stats.Accepted++
		if next.Value > stats.BestScore {
			stats.BestScore = next.Value
			update = a.cfg.Patience
		}
		a.consider(ctx, now, next)
	}
	return stats, false
}

// consider records vertices as the new near-best and, when feasible and better
// than anything before, as the new best, publishing it to the observer.
func (a *Annealer) consider(ctx context.Context, vertices []geometry.Point, s evaluator.Score) {
	if s.Value > a.nearScore.Value {
		a.nearScore = s
		copy(a.near, vertices)
	}
	if !s.Feasible() || s.Value <= a.bestScore {
		return
	}
	a.bestScore = s.Value
	a.best = a.solution(vertices, s)
	a.observer.OnImprovement(ctx, StrategyName, a.best)
}

func (a *Annealer) solution(vertices []geometry.Point, s evaluator.Score) *optimization.Solution {
	pose := problem.Pose{
		Vertices: append([]geometry.Point(nil), vertices...),
		Bonuses:  a.initial.Clone().Bonuses,
	}
	return &optimization.Solution{
		Pose:     pose,
		Dislikes: evaluator.PoseDislikes(a.problem.Hole, pose),
		Score:    s.Value,
		Residual: s.Residual,
		Feasible: s.Feasible(),
	}
}

func (a *Annealer) finish(ctx context.Context, res *optimization.Result) *optimization.Result {
	if a.best != nil {
		res.Best = a.best.Clone()
	} else {
		res.Best = a.solution(a.near, a.nearScore)
	}
	a.observer.OnComplete(ctx, StrategyName, res)
	return res
}
