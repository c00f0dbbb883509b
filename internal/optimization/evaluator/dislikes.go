// Package evaluator scores figure placements: the dislikes objective, the
// per-vertex penalty used by hill climbing and the whole-pose score used by
// annealing.
package evaluator

import (
	"math"

	"github.com/copyleftdev/brainwall/internal/geometry"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// Dislikes sums, over hole vertices, the squared distance to the nearest
// figure vertex.
func Dislikes(hole geometry.Polygon, vertices []geometry.Point) int64 {
	var total int64
	for _, h := range hole {
		best := int64(math.MaxInt64)
		for _, v := range vertices {
			if d := geometry.SquaredDistance(h, v); d < best {
				best = d
			}
		}
		if len(vertices) > 0 {
			total += best
		}
	}
	return total
}

// BonusDiscount counts hole vertices that coincide with a claimed bonus position.
func BonusDiscount(hole geometry.Polygon, claimed []geometry.Point) int64 {
	if len(claimed) == 0 {
		return 0
	}
	set := make(map[geometry.Point]struct{}, len(claimed))
	for _, c := range claimed {
		set[c] = struct{}{}
	}
	var n int64
	for _, h := range hole {
		if _, ok := set[h]; ok {
			n++
		}
	}
	return n
}

// PoseDislikes is Dislikes minus the discount earned by the pose's claimed bonuses.
func PoseDislikes(hole geometry.Polygon, pose problem.Pose) int64 {
	return Dislikes(hole, pose.Vertices) - BonusDiscount(hole, pose.ClaimedPositions())
}
