package problem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/brainwall/internal/errors"
	"github.com/copyleftdev/brainwall/internal/geometry"
)

const sample = `{
	"bonuses": [{"bonus": "GLOBALIST", "problem": 35, "position": [62, 72]}],
	"hole": [[55, 80], [65, 95], [95, 95], [35, 5], [5, 5], [35, 50], [5, 95], [35, 95], [45, 80]],
	"epsilon": 150000,
	"figure": {
		"edges": [[2, 5], [5, 4], [4, 1], [1, 0], [0, 8], [8, 3], [3, 7], [7, 11], [11, 13], [13, 12],
			[12, 18], [18, 19], [19, 14], [14, 15], [15, 17], [17, 16], [16, 10], [10, 6], [6, 2],
			[8, 12], [7, 9], [9, 3], [8, 9], [9, 12], [13, 9], [9, 11], [4, 8], [12, 14], [5, 10],
			[10, 15]],
		"vertices": [[20, 30], [20, 40], [30, 95], [40, 15], [40, 35], [40, 65], [40, 95], [45, 5],
			[45, 25], [50, 15], [50, 70], [55, 5], [55, 25], [60, 15], [60, 35], [60, 65], [60, 95],
			[70, 95], [80, 30], [80, 40]]
	}
}`

func TestDecode(t *testing.T) {
	p, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Len(t, p.Hole, 9)
	assert.Equal(t, geometry.Pt(55, 80), p.Hole[0])
	assert.Equal(t, int64(150000), p.Epsilon)
	assert.Len(t, p.Figure.Edges, 30)
	assert.Len(t, p.Figure.Vertices, 20)
	require.Len(t, p.Bonuses, 1)
	assert.Equal(t, Globalist, p.Bonuses[0].Bonus)
	assert.Equal(t, 35, p.Bonuses[0].Problem)
	assert.Equal(t, geometry.Pt(62, 72), p.Bonuses[0].Position)

	lengths := p.OriginalSquaredLengths()
	require.Len(t, lengths, 30)
	// edge [2, 5]: (30,95)-(40,65)
	assert.Equal(t, int64(100+900), lengths[0])
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `hole`},
		{"bad point", `{"hole": [[0, 0, 1], [1, 0], [0, 1]], "figure": {"edges": [], "vertices": []}}`},
		{"short hole", `{"hole": [[0, 0], [1, 0]], "figure": {"edges": [], "vertices": []}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "problem", e.Component)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Problem {
		return &Problem{
			Hole: geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(4, 0), geometry.Pt(0, 4)},
			Figure: Figure{
				Edges:    []Edge{{0, 1}},
				Vertices: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(4, 0)},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Problem)
		wantErr string
	}{
		{"valid", func(*Problem) {}, ""},
		{"short hole", func(p *Problem) { p.Hole = p.Hole[:2] }, "hole has 2 vertices"},
		{"negative epsilon", func(p *Problem) { p.Epsilon = -1 }, "negative epsilon"},
		{"edge out of range", func(p *Problem) { p.Figure.Edges = []Edge{{0, 2}} }, "edge 0 references"},
		{"negative index", func(p *Problem) { p.Figure.Edges = []Edge{{-1, 1}} }, "edge 0 references"},
		{"zero length edge", func(p *Problem) { p.Figure.Vertices[1] = p.Figure.Vertices[0] }, "zero original length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatePose(t *testing.T) {
	p := &Problem{
		Hole: geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(4, 0), geometry.Pt(0, 4)},
		Figure: Figure{
			Edges:    []Edge{{0, 1}},
			Vertices: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(4, 0)},
		},
	}

	assert.Error(t, p.ValidatePose(nil))
	assert.Error(t, p.ValidatePose(&Pose{Vertices: []geometry.Point{geometry.Pt(0, 0)}}))
	assert.NoError(t, p.ValidatePose(&Pose{Vertices: []geometry.Point{geometry.Pt(1, 1), geometry.Pt(2, 2)}}))
}

func TestPoseCloneAndBonuses(t *testing.T) {
	pos := geometry.Pt(3, 4)
	pose := Pose{
		Vertices: []geometry.Point{geometry.Pt(1, 1), geometry.Pt(2, 2)},
		Bonuses: []UsedBonus{
			{Bonus: Globalist, Problem: 7, Position: &pos},
			{Bonus: BreakALeg, Problem: 8},
		},
	}

	clone := pose.Clone()
	clone.Vertices[0] = geometry.Pt(9, 9)
	*clone.Bonuses[0].Position = geometry.Pt(0, 0)

	assert.Equal(t, geometry.Pt(1, 1), pose.Vertices[0])
	assert.Equal(t, geometry.Pt(3, 4), pos)

	assert.True(t, pose.Uses(Globalist))
	assert.True(t, pose.Uses(BreakALeg))
	assert.False(t, pose.Uses(WallHack))
	assert.Equal(t, []geometry.Point{geometry.Pt(3, 4)}, pose.ClaimedPositions())

	assert.Nil(t, Pose{}.Clone().Bonuses)
}
