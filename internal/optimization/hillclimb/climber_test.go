package hillclimb

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/brainwall/internal/geometry"
	"github.com/copyleftdev/brainwall/internal/optimization"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// scriptedRand replays fixed draws, then falls back to a seeded source.
type scriptedRand struct {
	script []int
	rest   *rand.Rand
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.script) > 0 {
		v := s.script[0]
		s.script = s.script[1:]
		return v % n
	}
	return s.rest.Intn(n)
}

// recorder keeps every event it sees.
type recorder struct {
	improvements []int64
	rounds       int
	completed    *optimization.Result
}

func (r *recorder) OnImprovement(_ context.Context, _ string, sol *optimization.Solution) {
	r.improvements = append(r.improvements, sol.Dislikes)
}

func (r *recorder) OnRound(context.Context, string, optimization.RoundStats) { r.rounds++ }

func (r *recorder) OnComplete(_ context.Context, _ string, res *optimization.Result) {
	r.completed = res
}

func triangleProblem() *problem.Problem {
	return &problem.Problem{
		Hole: geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(4, 0), geometry.Pt(0, 4)},
		Figure: problem.Figure{
			Edges:    []problem.Edge{{0, 1}},
			Vertices: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(4, 0)},
		},
		Epsilon: 0,
	}
}

func collapsedPose() *problem.Pose {
	return &problem.Pose{Vertices: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(0, 0)}}
}

func TestNewRejectsMalformedInput(t *testing.T) {
	p := triangleProblem()

	_, err := New(p, &problem.Pose{Vertices: []geometry.Point{geometry.Pt(0, 0)}}, Config{}, nil)
	require.Error(t, err)
	oe, ok := optimization.IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "hillclimb", oe.Component)

	_, err = New(p, collapsedPose(), Config{Cycles: -1}, nil)
	assert.Error(t, err)

	bad := triangleProblem()
	bad.Figure.Vertices[1] = bad.Figure.Vertices[0]
	_, err = New(bad, collapsedPose(), Config{}, nil)
	assert.Error(t, err)
}

func TestZeroCyclesLeavesPoseUnchanged(t *testing.T) {
	p := triangleProblem()
	pose := &problem.Pose{Vertices: []geometry.Point{geometry.Pt(1, 1), geometry.Pt(2, 0)}}

	c, err := New(p, pose, Config{Cycles: 0, Seed: 7}, nil)
	require.NoError(t, err)

	res, err := c.Optimize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, 0, res.Moves)
	assert.Equal(t, pose.Vertices, res.Best.Pose.Vertices)
}

func TestTriangleConverges(t *testing.T) {
	p := triangleProblem()
	rec := &recorder{}
	// four moves of vertex 1 in direction +x, then random draws
	rng := &scriptedRand{
		script: []int{1, 0, 1, 0, 1, 0, 1, 0},
		rest:   rand.New(rand.NewSource(42)),
	}

	c, err := New(p, collapsedPose(), Config{Cycles: 500, Rand: rng}, rec)
	require.NoError(t, err)

	res, err := c.Optimize(context.Background())
	require.NoError(t, err)

	got := res.Best.Pose.Vertices
	for _, v := range got {
		assert.NotEqual(t, geometry.Outside, geometry.ContainsPoint(p.Hole, v))
	}
	assert.Equal(t, int64(16), geometry.SquaredDistance(got[0], got[1]))
	assert.True(t, geometry.ContainsSegment(p.Hole, got[0], got[1]))

	var want int64
	for _, h := range p.Hole {
		want += min(geometry.SquaredDistance(h, got[0]), geometry.SquaredDistance(h, got[1]))
	}
	assert.Equal(t, want, res.Best.Dislikes)
	assert.Equal(t, int64(16), res.Best.Dislikes)
	assert.True(t, res.Best.Feasible)
	assert.Equal(t, 0.0, res.Best.Residual)

	// once feasible with epsilon 0 every unit move breaks the edge length
	assert.Equal(t, 4, res.Accepted)
	assert.Equal(t, 500, res.Moves)

	assert.Equal(t, []int64{25, 20, 17, 16}, rec.improvements)
	assert.Equal(t, 1, rec.rounds)
	require.NotNil(t, rec.completed)
	assert.Equal(t, res, rec.completed)
}

func TestDislikesNeverIncrease(t *testing.T) {
	p := &problem.Problem{
		Hole: geometry.Polygon{
			geometry.Pt(0, 0), geometry.Pt(20, 0), geometry.Pt(20, 20), geometry.Pt(0, 20),
		},
		Figure: problem.Figure{
			Edges:    []problem.Edge{{0, 1}, {1, 2}, {2, 0}},
			Vertices: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(6, 0), geometry.Pt(0, 8)},
		},
		Epsilon: 50_000,
	}
	pose := &problem.Pose{Vertices: []geometry.Point{geometry.Pt(5, 5), geometry.Pt(11, 5), geometry.Pt(5, 13)}}

	for _, seed := range []int64{1, 2, 3} {
		rec := &recorder{}
		c, err := New(p, pose, Config{Cycles: 2000, Seed: seed}, rec)
		require.NoError(t, err)
		start := c.Best().Dislikes

		res, err := c.Optimize(context.Background())
		require.NoError(t, err)

		assert.LessOrEqual(t, res.Best.Dislikes, start)
		assert.LessOrEqual(t, res.Accepted, res.Moves)
		for i := 1; i < len(rec.improvements); i++ {
			assert.Less(t, rec.improvements[i], rec.improvements[i-1])
		}
		// the input pose is feasible, so every accepted move keeps it feasible
		assert.True(t, res.Best.Feasible, "seed %d", seed)
	}
	assert.Equal(t, geometry.Pt(5, 5), pose.Vertices[0], "input pose must not be mutated")
}

func TestGlobalistModeFromPose(t *testing.T) {
	p := triangleProblem()
	pose := collapsedPose()
	pose.Bonuses = []problem.UsedBonus{{Bonus: problem.Globalist, Problem: 11}}

	c, err := New(p, pose, Config{Cycles: 10, Seed: 1}, nil)
	require.NoError(t, err)
	assert.True(t, c.Globalist())

	c, err = New(p, collapsedPose(), Config{Cycles: 10, Seed: 1}, nil)
	require.NoError(t, err)
	assert.False(t, c.Globalist())
}

func TestOptimizeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := New(triangleProblem(), collapsedPose(), Config{Cycles: 100, Seed: 1}, nil)
	require.NoError(t, err)

	res, err := c.Optimize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Moves)
}
