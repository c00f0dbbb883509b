package problem

import "github.com/copyleftdev/brainwall/internal/geometry"

// UsedBonus is a bonus claimed by a pose. Position is set when the claim is
// tied to a grid point.
type UsedBonus struct {
	Bonus    BonusType       `json:"bonus"`
	Problem  int             `json:"problem"`
	Position *geometry.Point `json:"position,omitempty"`
}

// Pose is a placement of every figure vertex.
type Pose struct {
	Vertices []geometry.Point `json:"vertices"`
	Bonuses  []UsedBonus      `json:"bonuses,omitempty"`
}

// Clone returns a deep copy of the pose.
func (p Pose) Clone() Pose {
	out := Pose{Vertices: append([]geometry.Point(nil), p.Vertices...)}
	if p.Bonuses != nil {
		out.Bonuses = make([]UsedBonus, len(p.Bonuses))
		for i, b := range p.Bonuses {
			out.Bonuses[i] = b
			if b.Position != nil {
				pos := *b.Position
				out.Bonuses[i].Position = &pos
			}
		}
	}
	return out
}

// Uses reports whether the pose claims a bonus of type t.
func (p Pose) Uses(t BonusType) bool {
	for _, b := range p.Bonuses {
		if b.Bonus == t {
			return true
		}
	}
	return false
}

// ClaimedPositions returns the grid points of the claimed bonuses that carry one.
func (p Pose) ClaimedPositions() []geometry.Point {
	var out []geometry.Point
	for _, b := range p.Bonuses {
		if b.Position != nil {
			out = append(out, *b.Position)
		}
	}
	return out
}
