// Package metrics exports solver progress to Prometheus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/brainwall/internal/optimization"
)

const namespace = "brainwall"

// Collector is an optimization.Observer that records solver progress.
type Collector struct {
	moves        *prometheus.CounterVec
	accepted     *prometheus.CounterVec
	rounds       *prometheus.CounterVec
	improvements *prometheus.CounterVec
	runs         *prometheus.CounterVec
	bestDislikes *prometheus.GaugeVec
	bestScore    *prometheus.GaugeVec
}

var _ optimization.Observer = (*Collector)(nil)

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "moves_total",
			Help:      "Attempted vertex moves.",
		}, []string{"strategy"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "accepted_moves_total",
			Help:      "Vertex moves kept by the acceptance rule.",
		}, []string{"strategy"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "rounds_total",
			Help:      "Completed inner search loops.",
		}, []string{"strategy"}),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "improvements_total",
			Help:      "Newly recorded best solutions.",
		}, []string{"strategy"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "runs_total",
			Help:      "Finished strategy runs.",
		}, []string{"strategy", "converged", "feasible"}),
		bestDislikes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "best_dislikes",
			Help:      "Dislikes of the most recently recorded best solution.",
		}, []string{"strategy"}),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "best_score",
			Help:      "Score of the most recently recorded best solution.",
		}, []string{"strategy"}),
	}

	for _, col := range []prometheus.Collector{
		c.moves, c.accepted, c.rounds, c.improvements, c.runs, c.bestDislikes, c.bestScore,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OnImprovement implements optimization.Observer.
func (c *Collector) OnImprovement(_ context.Context, strategy string, sol *optimization.Solution) {
	c.improvements.WithLabelValues(strategy).Inc()
	c.bestDislikes.WithLabelValues(strategy).Set(float64(sol.Dislikes))
	c.bestScore.WithLabelValues(strategy).Set(sol.Score)
}

// OnRound implements optimization.Observer.
func (c *Collector) OnRound(_ context.Context, strategy string, stats optimization.RoundStats) {
	c.rounds.WithLabelValues(strategy).Inc()
	c.moves.WithLabelValues(strategy).Add(float64(stats.Moves))
	c.accepted.WithLabelValues(strategy).Add(float64(stats.Accepted))
}

// OnComplete implements optimization.Observer.
func (c *Collector) OnComplete(_ context.Context, strategy string, res *optimization.Result) {
	feasible := res.Best != nil && res.Best.Feasible
	c.runs.WithLabelValues(strategy, strconv.FormatBool(res.Converged), strconv.FormatBool(feasible)).Inc()
}
