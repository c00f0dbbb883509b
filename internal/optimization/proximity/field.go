// Package proximity builds an approximate distance-outside-the-hole field over
// the problem's bounding grid.
package proximity

import (
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/brainwall/internal/geometry"
)

const (
	// Sentinel marks outside cells that relaxation has not reached.
	Sentinel = 99_999.0
	// DefaultRounds bounds relaxation when the caller passes 0.
	DefaultRounds = 300
)

// Field holds, for each grid point in its rectangle, 0 when the point is
// inside or on the hole and otherwise the 4-connected step count to the
// nearest such point. The field is read-only once built.
type Field struct {
	rect   geometry.Rect
	values *mat.Dense // rows index x, columns index y
	rounds int
}

var steps = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Build computes the field for hole over rect, relaxing for at most maxRounds
// rounds (DefaultRounds when maxRounds <= 0).
func Build(hole geometry.Polygon, rect geometry.Rect, maxRounds int) *Field {
	if maxRounds <= 0 {
		maxRounds = DefaultRounds
	}
	w, h := rect.Dx(), rect.Dy()
	values := mat.NewDense(w, h, nil)
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			p := geometry.Pt(rect.Min.X+int64(i), rect.Min.Y+int64(j))
			if geometry.ContainsPoint(hole, p) == geometry.Outside {
				values.Set(i, j, Sentinel)
			}
		}
	}

	f := &Field{rect: rect, values: values}
	var frontier [][2]int
	for round := 1; round <= maxRounds; round++ {
		frontier = frontier[:0]
		prev := float64(round - 1)
		for i := 0; i < w; i++ {
			for j := 0; j < h; j++ {
				if values.At(i, j) != Sentinel {
					continue
				}
				for _, s := range steps {
					ni, nj := i+s[0], j+s[1]
					if ni >= 0 && ni < w && nj >= 0 && nj < h && values.At(ni, nj) == prev {
						frontier = append(frontier, [2]int{i, j})
						break
					}
				}
			}
		}
		if len(frontier) == 0 {
			break
		}
		// labels are applied after the scan so each round sees only the previous one
		for _, c := range frontier {
			values.Set(c[0], c[1], float64(round))
		}
		f.rounds = round
	}
	return f
}

// Rect returns the grid the field covers.
func (f *Field) Rect() geometry.Rect {
	return f.rect
}

// Rounds returns how many relaxation rounds changed the field.
func (f *Field) Rounds() int {
	return f.rounds
}

// InBounds reports whether p lies on the field's grid.
func (f *Field) InBounds(p geometry.Point) bool {
	return f.rect.Contains(p)
}

// At returns the field value at p, or Sentinel off the grid.
func (f *Field) At(p geometry.Point) float64 {
	if !f.rect.Contains(p) {
		return Sentinel
	}
	return f.values.At(int(p.X-f.rect.Min.X), int(p.Y-f.rect.Min.Y))
}
