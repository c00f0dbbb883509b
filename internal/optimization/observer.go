package optimization

import "context"

// RoundStats summarises one inner search loop.
type RoundStats struct {
	Round     int
	Moves     int
	Accepted  int
	BestScore float64
}

// Observer receives progress from a running strategy. Strategies call it
// synchronously, so implementations must be fast and must not retain the
// solution without cloning it.
type Observer interface {
	// OnImprovement is called with every newly recorded best solution.
	OnImprovement(ctx context.Context, strategy string, sol *Solution)
	// OnRound is called after every inner loop.
	OnRound(ctx context.Context, strategy string, stats RoundStats)
	// OnComplete is called once with the final result.
	OnComplete(ctx context.Context, strategy string, res *Result)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnImprovement(context.Context, string, *Solution) {}
func (NopObserver) OnRound(context.Context, string, RoundStats)      {}
func (NopObserver) OnComplete(context.Context, string, *Result)      {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return NopObserver{}
	}
	return out
}

func (m multiObserver) OnImprovement(ctx context.Context, strategy string, sol *Solution) {
	for _, o := range m {
		o.OnImprovement(ctx, strategy, sol)
	}
}

func (m multiObserver) OnRound(ctx context.Context, strategy string, stats RoundStats) {
	for _, o := range m {
		o.OnRound(ctx, strategy, stats)
	}
}

func (m multiObserver) OnComplete(ctx context.Context, strategy string, res *Result) {
	for _, o := range m {
		o.OnComplete(ctx, strategy, res)
	}
}
