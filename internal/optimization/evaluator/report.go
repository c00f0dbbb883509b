package evaluator

import "github.com/copyleftdev/brainwall/internal/problem"

// Report is the verdict on a single pose: its dislikes and the penalty that
// keeps it from being valid.
type Report struct {
	Dislikes  int64 `json:"dislikes"`
	Residual  int64 `json:"residual"`
	Feasible  bool  `json:"feasible"`
	Globalist bool  `json:"globalist"`
}

// Assess scores pose against p without moving any vertex. The aggregate
// stretch rule applies when the pose claims a GLOBALIST bonus. p and pose must
// have passed validation.
func Assess(p *problem.Problem, pose problem.Pose) Report {
	local := NewLocal(p, pose.Uses(problem.Globalist))
	residual := local.Total(pose.Vertices)
	return Report{
		Dislikes:  PoseDislikes(p.Hole, pose),
		Residual:  residual,
		Feasible:  residual == 0,
		Globalist: local.Globalist(),
	}
}
