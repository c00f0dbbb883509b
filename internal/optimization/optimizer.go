package optimization

import (
	"context"
	"math/rand"
	"time"

	"github.com/copyleftdev/brainwall/internal/problem"
)

// Strategy is a search procedure that improves a pose for one problem.
type Strategy interface {
	// Optimize runs the search until its budget is spent or ctx is done.
	// The returned result is non-nil even when ctx ends the run early.
	Optimize(ctx context.Context) (*Result, error)

	// Best returns the best solution recorded so far.
	Best() *Solution
}

// Solution is a pose together with how it scores.
type Solution struct {
	Pose     problem.Pose `json:"pose"`
	Dislikes int64        `json:"dislikes"`
	// Score is the strategy's own objective; higher is better.
	Score float64 `json:"score"`
	// Residual is the magnitude of constraint violation; zero means feasible.
	Residual float64 `json:"residual"`
	Feasible bool    `json:"feasible"`
}

// Clone returns a deep copy of s.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	out := *s
	out.Pose = s.Pose.Clone()
	return &out
}

// Result contains the outcome of a strategy run.
type Result struct {
	Best     *Solution
	Rounds   int
	Moves    int
	Accepted int
	// Converged is set when the strategy stopped on its own success criterion
	// rather than a budget or cancellation.
	Converged bool
}

// Rand is the randomness a strategy draws from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a seeded source; seed 0 picks a time-based seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
