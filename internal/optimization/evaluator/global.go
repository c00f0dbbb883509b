package evaluator

import (
	"math"

	"github.com/copyleftdev/brainwall/internal/geometry"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// DistanceField estimates how far a grid point lies outside the hole.
type DistanceField interface {
	At(p geometry.Point) float64
}

// Weights scale the terms of the global score.
type Weights struct {
	// Containment multiplies the cubed field distance of each vertex.
	Containment float64
	// EdgeOutside is charged for every edge not contained in the hole.
	EdgeOutside float64
	// Distance multiplies the linear stretch excess of each edge.
	Distance float64
	// Baseline is added before subtracting dislikes.
	Baseline float64
}

// DefaultWeights returns the weights the annealer is tuned for.
func DefaultWeights() Weights {
	return Weights{
		Containment: 10,
		EdgeOutside: 1_000_000,
		Distance:    50,
		Baseline:    100_000,
	}
}

// minStretchExcess keeps an edge that fails the exact check from being
// scored as feasible when float rounding puts it inside the linear band.
const minStretchExcess = 1e-3

// Score is the global evaluation of a pose. Value is higher for better poses;
// Residual is the part of the penalty caused by constraint violations.
type Score struct {
	Value    float64
	Residual float64
}

// Feasible reports whether no constraint is violated.
func (s Score) Feasible() bool {
	return s.Residual == 0
}

// Global scores a whole pose for the annealer.
type Global struct {
	hole    geometry.Polygon
	edges   []problem.Edge
	orig    []int64
	lo, hi  []float64
	epsilon int64
	field   DistanceField
	w       Weights
}

// NewGlobal builds a Global evaluator over field. p must have passed Validate.
func NewGlobal(p *problem.Problem, field DistanceField, w Weights) *Global {
	g := &Global{
		hole:    p.Hole,
		edges:   p.Figure.Edges,
		orig:    p.OriginalSquaredLengths(),
		epsilon: p.Epsilon,
		field:   field,
		w:       w,
	}
	ratio := float64(p.Epsilon) / geometry.PPM
	g.lo = make([]float64, len(g.orig))
	g.hi = make([]float64, len(g.orig))
	for i, o := range g.orig {
		l := math.Sqrt(float64(o))
		g.lo[i] = l * math.Sqrt(math.Max(0, 1-ratio))
		g.hi[i] = l * math.Sqrt(1+ratio)
	}
	return g
}

// stretchExcess is how far the linear length of edge i lies outside its
// tolerance band, halved below one unit.
func (g *Global) stretchExcess(i int, sq int64) float64 {
	if geometry.StretchOK(g.orig[i], sq, g.epsilon) {
		return 0
	}
	l := math.Sqrt(float64(sq))
	var dev float64
	switch {
	case l < g.lo[i]:
		dev = g.lo[i] - l
	case l > g.hi[i]:
		dev = l - g.hi[i]
	}
	if dev <= 1 {
		dev /= 2
	}
	return math.Max(dev, minStretchExcess)
}

// Evaluate scores vertices.
func (g *Global) Evaluate(vertices []geometry.Point) Score {
	var penalty float64
	for _, v := range vertices {
		d := g.field.At(v)
		penalty += d * d * d * g.w.Containment
	}
	for i, e := range g.edges {
		a, b := vertices[e[0]], vertices[e[1]]
		penalty += g.stretchExcess(i, geometry.SquaredDistance(a, b)) * g.w.Distance
		if !geometry.ContainsSegment(g.hole, a, b) {
			penalty += g.w.EdgeOutside
		}
	}
	return Score{
		Value:    g.w.Baseline - penalty - float64(Dislikes(g.hole, vertices)),
		Residual: penalty,
	}
}
