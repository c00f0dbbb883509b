package evaluator

import (
	"math"
	"math/big"

	"github.com/copyleftdev/brainwall/internal/geometry"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// PenaltyUnit is charged for each containment violation.
const PenaltyUnit = 1000

type incidence struct {
	other int
	edge  int
}

// Local checks the constraints around a single vertex. In globalist mode the
// per-edge stretch limit is replaced by one limit on the summed relative
// stretch of the whole figure.
type Local struct {
	hole      geometry.Polygon
	edges     []problem.Edge
	orig      []int64
	adj       [][]incidence
	epsilon   int64
	globalist bool

	// globalist weighting: prod = Π orig, weights[i] = prod / orig[i]
	prod    *big.Int
	weights []*big.Int
	limit   *big.Int // prod · m · ε
}

// NewLocal builds a Local evaluator. p must have passed Validate.
func NewLocal(p *problem.Problem, globalist bool) *Local {
	l := &Local{
		hole:      p.Hole,
		edges:     p.Figure.Edges,
		orig:      p.OriginalSquaredLengths(),
		adj:       make([][]incidence, len(p.Figure.Vertices)),
		epsilon:   p.Epsilon,
		globalist: globalist,
	}
	for i, e := range l.edges {
		l.adj[e[0]] = append(l.adj[e[0]], incidence{other: e[1], edge: i})
		l.adj[e[1]] = append(l.adj[e[1]], incidence{other: e[0], edge: i})
	}
	if globalist {
		l.prod = big.NewInt(1)
		for _, o := range l.orig {
			l.prod.Mul(l.prod, big.NewInt(o))
		}
		l.weights = make([]*big.Int, len(l.orig))
		for i, o := range l.orig {
			l.weights[i] = new(big.Int).Quo(l.prod, big.NewInt(o))
		}
		l.limit = new(big.Int).Mul(l.prod, big.NewInt(int64(len(l.orig))*l.epsilon))
	}
	return l
}

// Globalist reports whether the aggregate stretch rule is in force.
func (l *Local) Globalist() bool {
	return l.globalist
}

// aggregateSlack returns 1e6·Σ weights[i]·|new_i − orig_i| − prod·m·ε.
// The aggregate rule holds iff the result is not positive.
func (l *Local) aggregateSlack(vertices []geometry.Point) *big.Int {
	sum := new(big.Int)
	term := new(big.Int)
	for i, e := range l.edges {
		d := geometry.SquaredDistance(vertices[e[0]], vertices[e[1]]) - l.orig[i]
		if d < 0 {
			d = -d
		}
		term.Mul(l.weights[i], big.NewInt(d))
		sum.Add(sum, term)
	}
	sum.Mul(sum, big.NewInt(geometry.PPM))
	return sum.Sub(sum, l.limit)
}

// aggregateExcess is the aggregate violation in ppm-of-one-edge units,
// rounded up; zero when the rule holds.
func (l *Local) aggregateExcess(vertices []geometry.Point) int64 {
	slack := l.aggregateSlack(vertices)
	if slack.Sign() <= 0 {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(slack, l.prod).Float64()
	if f >= math.MaxInt64/4 {
		return math.MaxInt64 / 4
	}
	return int64(math.Ceil(f))
}

// Violations returns the penalty around vertex a: one unit if it lies outside
// the hole, one unit per incident edge leaving the hole, plus the raw stretch
// excess of each incident edge (or the aggregate excess in globalist mode).
func (l *Local) Violations(vertices []geometry.Point, a int) int64 {
	var penalty int64
	p := vertices[a]
	if geometry.ContainsPoint(l.hole, p) == geometry.Outside {
		penalty += PenaltyUnit
	}
	for _, inc := range l.adj[a] {
		q := vertices[inc.other]
		if !geometry.ContainsSegment(l.hole, p, q) {
			penalty += PenaltyUnit
		}
		if !l.globalist {
			penalty += geometry.StretchExcess(l.orig[inc.edge], geometry.SquaredDistance(p, q), l.epsilon)
		}
	}
	if l.globalist {
		penalty += l.aggregateExcess(vertices)
	}
	return penalty
}

// Satisfied reports whether every constraint around vertex a holds exactly.
func (l *Local) Satisfied(vertices []geometry.Point, a int) bool {
	p := vertices[a]
	if geometry.ContainsPoint(l.hole, p) == geometry.Outside {
		return false
	}
	for _, inc := range l.adj[a] {
		q := vertices[inc.other]
		if !geometry.ContainsSegment(l.hole, p, q) {
			return false
		}
		if !l.globalist && !geometry.StretchOK(l.orig[inc.edge], geometry.SquaredDistance(p, q), l.epsilon) {
			return false
		}
	}
	if l.globalist {
		return l.aggregateSlack(vertices).Sign() <= 0
	}
	return true
}

// Total is the whole-pose counterpart of Violations: each vertex and each edge
// is charged once.
func (l *Local) Total(vertices []geometry.Point) int64 {
	var penalty int64
	for _, v := range vertices {
		if geometry.ContainsPoint(l.hole, v) == geometry.Outside {
			penalty += PenaltyUnit
		}
	}
	for i, e := range l.edges {
		p, q := vertices[e[0]], vertices[e[1]]
		if !geometry.ContainsSegment(l.hole, p, q) {
			penalty += PenaltyUnit
		}
		if !l.globalist {
			penalty += geometry.StretchExcess(l.orig[i], geometry.SquaredDistance(p, q), l.epsilon)
		}
	}
	if l.globalist {
		penalty += l.aggregateExcess(vertices)
	}
	return penalty
}

// Feasible reports whether the whole pose satisfies every constraint.
func (l *Local) Feasible(vertices []geometry.Point) bool {
	return l.Total(vertices) == 0
}
