// Package problem defines the hole, figure and pose data exchanged with the
// solver, in the JSON layout used by problem and solution files.
package problem

import (
	"github.com/copyleftdev/brainwall/internal/errors"
	"github.com/copyleftdev/brainwall/internal/geometry"
)

// BonusType names a bonus that can be unlocked in one problem and spent in another.
type BonusType string

const (
	Globalist BonusType = "GLOBALIST"
	BreakALeg BonusType = "BREAK_A_LEG"
	WallHack  BonusType = "WALLHACK"
	SuperFlex BonusType = "SUPERFLEX"
)

// Edge is an undirected pair of figure vertex indices.
type Edge [2]int

// Figure is the graph being placed. Vertices hold the original positions and
// only serve to derive the original edge lengths.
type Figure struct {
	Edges    []Edge           `json:"edges"`
	Vertices []geometry.Point `json:"vertices"`
}

// Bonus is a bonus offered by a problem at a fixed position.
type Bonus struct {
	Bonus    BonusType      `json:"bonus"`
	Problem  int            `json:"problem"`
	Position geometry.Point `json:"position"`
}

// Problem is one hole/figure instance.
type Problem struct {
	Hole    geometry.Polygon `json:"hole"`
	Figure  Figure           `json:"figure"`
	Epsilon int64            `json:"epsilon"`
	Bonuses []Bonus          `json:"bonuses,omitempty"`
}

// OriginalSquaredLengths returns the squared length of every figure edge in
// its original placement, indexed like Figure.Edges.
func (p *Problem) OriginalSquaredLengths() []int64 {
	out := make([]int64, len(p.Figure.Edges))
	for i, e := range p.Figure.Edges {
		out[i] = geometry.SquaredDistance(p.Figure.Vertices[e[0]], p.Figure.Vertices[e[1]])
	}
	return out
}

// Validate checks the structural preconditions the solver relies on. It does
// not check that the hole is simple.
func (p *Problem) Validate() error {
	if len(p.Hole) < 3 {
		return errors.Errorf("hole has %d vertices, need at least 3", len(p.Hole)).
			WithComponent("problem").WithOperation("validate")
	}
	if p.Epsilon < 0 {
		return errors.Errorf("negative epsilon %d", p.Epsilon).
			WithComponent("problem").WithOperation("validate")
	}
	n := len(p.Figure.Vertices)
	for i, e := range p.Figure.Edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			return errors.Errorf("edge %d references vertex outside 0..%d", i, n-1).
				WithComponent("problem").WithOperation("validate")
		}
		if p.Figure.Vertices[e[0]] == p.Figure.Vertices[e[1]] {
			return errors.Errorf("edge %d has zero original length", i).
				WithComponent("problem").WithOperation("validate")
		}
	}
	return nil
}

// ValidatePose checks that pose places every figure vertex.
func (p *Problem) ValidatePose(pose *Pose) error {
	if pose == nil {
		return errors.New("pose is nil").WithComponent("problem").WithOperation("validate_pose")
	}
	if len(pose.Vertices) != len(p.Figure.Vertices) {
		return errors.Errorf("pose has %d vertices, figure has %d",
			len(pose.Vertices), len(p.Figure.Vertices)).
			WithComponent("problem").WithOperation("validate_pose")
	}
	return nil
}
