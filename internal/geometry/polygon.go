package geometry

import "sort"

// Containment classifies a point against a polygon.
type Containment int

const (
	// Outside means strictly outside the closed region.
	Outside Containment = iota - 1
	// OnBoundary means exactly on an edge or vertex.
	OnBoundary
	// Inside means strictly inside.
	Inside
)

func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case OnBoundary:
		return "on_boundary"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// Polygon is a closed ring of points; the last point connects back to the first.
// Callers must supply a simple polygon.
type Polygon []Point

// Edge returns the i-th boundary edge.
func (poly Polygon) Edge(i int) (Point, Point) {
	return poly[i], poly[(i+1)%len(poly)]
}

// ContainsPoint classifies p against poly using an exact crossing-number test.
func ContainsPoint(poly Polygon, p Point) Containment {
	return classify(poly, 1, p)
}

// classify tests p against poly with every polygon vertex multiplied by k.
// k=2 lets callers test segment midpoints without leaving integer arithmetic.
func classify(poly Polygon, k int64, p Point) Containment {
	n := len(poly)
	if n == 0 {
		return Outside
	}
	inside := false
	for i := 0; i < n; i++ {
		a := poly[i].Scale(k)
		b := poly[(i+1)%n].Scale(k)
		if onSegment(p, a, b) {
			return OnBoundary
		}
		if (a.Y <= p.Y) != (b.Y <= p.Y) {
			c := b.Sub(a).Cross(p.Sub(a))
			if (c > 0) == (b.Y > a.Y) {
				inside = !inside
			}
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p, a, b Point) bool {
	if b.Sub(a).Cross(p.Sub(a)) != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

func sign(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// properlyCross reports whether segments ab and cd cross at a single point
// interior to both.
func properlyCross(a, b, c, d Point) bool {
	ab := b.Sub(a)
	cd := d.Sub(c)
	o1 := sign(ab.Cross(c.Sub(a)))
	o2 := sign(ab.Cross(d.Sub(a)))
	o3 := sign(cd.Cross(a.Sub(c)))
	o4 := sign(cd.Cross(b.Sub(c)))
	return o1*o2 < 0 && o3*o4 < 0
}

// ContainsSegment reports whether the closed segment ab lies entirely within
// the closed region bounded by poly. Running along the boundary or touching
// it at a vertex does not count as leaving the region.
func ContainsSegment(poly Polygon, a, b Point) bool {
	if ContainsPoint(poly, a) == Outside || ContainsPoint(poly, b) == Outside {
		return false
	}
	if a == b {
		return true
	}
	for i := range poly {
		c, d := poly.Edge(i)
		if properlyCross(a, b, c, d) {
			return false
		}
	}

	// Between consecutive critical points the open sub-segment is entirely
	// inside, entirely outside or entirely on the boundary.
	dir := b.Sub(a)
	critical := []Point{a, b}
	for _, v := range poly {
		if v != a && v != b && onSegment(v, a, b) {
			critical = append(critical, v)
		}
	}
	sort.Slice(critical, func(i, j int) bool {
		return critical[i].Sub(a).Dot(dir) < critical[j].Sub(a).Dot(dir)
	})
	for i := 1; i < len(critical); i++ {
		mid := critical[i-1].Add(critical[i])
		if classify(poly, 2, mid) == Outside {
			return false
		}
	}
	return true
}
