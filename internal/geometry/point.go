// Package geometry provides the exact integer predicates used to decide
// whether a figure placement fits inside a hole.
package geometry

import (
	"encoding/json"
	"fmt"
)

// Point is an integer grid coordinate.
type Point struct {
	X int64
	Y int64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p*k.
func (p Point) Scale(k int64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Abs2 returns the squared magnitude of p.
func (p Point) Abs2() int64 {
	return p.X*p.X + p.Y*p.Y
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) int64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the cross product p×q.
func (p Point) Cross(q Point) int64 {
	return p.X*q.Y - p.Y*q.X
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// MarshalJSON encodes p as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array into p.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []int64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point must have 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// SquaredDistance returns |p-q|².
func SquaredDistance(p, q Point) int64 {
	return p.Sub(q).Abs2()
}

// Rect is an inclusive axis-aligned box of grid points.
type Rect struct {
	Min Point
	Max Point
}

// Bounds returns the smallest Rect containing every given point.
// It returns the zero Rect when no points are given.
func Bounds(sets ...[]Point) Rect {
	var r Rect
	first := true
	for _, pts := range sets {
		for _, p := range pts {
			if first {
				r = Rect{Min: p, Max: p}
				first = false
				continue
			}
			r.Min.X = min(r.Min.X, p.X)
			r.Min.Y = min(r.Min.Y, p.Y)
			r.Max.X = max(r.Max.X, p.X)
			r.Max.Y = max(r.Max.Y, p.Y)
		}
	}
	return r
}

// Contains reports whether p lies in r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Dx is the number of grid columns covered by r.
func (r Rect) Dx() int {
	return int(r.Max.X-r.Min.X) + 1
}

// Dy is the number of grid rows covered by r.
func (r Rect) Dy() int {
	return int(r.Max.Y-r.Min.Y) + 1
}
