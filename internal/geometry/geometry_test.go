package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = Polygon{Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0)}

// notched is a U shape whose notch opens upward between x=3 and x=7.
var notched = Polygon{
	Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(7, 10),
	Pt(7, 3), Pt(3, 3), Pt(3, 10), Pt(0, 10),
}

func TestContainsPoint(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		p    Point
		want Containment
	}{
		{"square center", square, Pt(5, 5), Inside},
		{"square near corner", square, Pt(1, 1), Inside},
		{"square corner", square, Pt(0, 0), OnBoundary},
		{"square far corner", square, Pt(10, 10), OnBoundary},
		{"square edge midpoint", square, Pt(5, 0), OnBoundary},
		{"square left edge", square, Pt(0, 5), OnBoundary},
		{"square left of", square, Pt(-1, 5), Outside},
		{"square above", square, Pt(5, 11), Outside},
		{"square diagonal out", square, Pt(11, 11), Outside},
		{"ray through vertex", square, Pt(-3, 10), Outside},
		{"notch interior", notched, Pt(5, 5), Outside},
		{"notch floor", notched, Pt(5, 3), OnBoundary},
		{"left arm", notched, Pt(1, 8), Inside},
		{"right arm", notched, Pt(9, 8), Inside},
		{"base", notched, Pt(5, 1), Inside},
		{"ray through reflex vertex", notched, Pt(1, 3), Inside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPoint(tt.poly, tt.p))
		})
	}
}

func TestContainsSegment(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		a, b Point
		want bool
	}{
		{"fully outside", square, Pt(11, 0), Pt(20, 5), false},
		{"identical to edge", square, Pt(0, 0), Pt(0, 10), true},
		{"reversed edge", square, Pt(10, 0), Pt(10, 10), true},
		{"diagonal", square, Pt(0, 0), Pt(10, 10), true},
		{"one endpoint outside", square, Pt(5, 5), Pt(15, 5), false},
		{"degenerate inside", square, Pt(3, 3), Pt(3, 3), true},
		{"across notch", notched, Pt(1, 8), Pt(9, 8), false},
		{"along base", notched, Pt(1, 1), Pt(9, 1), true},
		{"along notch floor through vertices", notched, Pt(1, 3), Pt(9, 3), true},
		{"top edge over notch", notched, Pt(2, 10), Pt(8, 10), false},
		{"wall to wall", notched, Pt(3, 5), Pt(7, 5), false},
		{"touching reflex vertex", notched, Pt(1, 5), Pt(5, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsSegment(tt.poly, tt.a, tt.b))
			assert.Equal(t, tt.want, ContainsSegment(tt.poly, tt.b, tt.a), "direction must not matter")
		})
	}
}

func TestStretchOK(t *testing.T) {
	// epsilon 0 demands equality
	assert.True(t, StretchOK(16, 16, 0))
	assert.False(t, StretchOK(16, 17, 0))
	assert.False(t, StretchOK(16, 15, 0))

	// 10% of 100 either way
	assert.True(t, StretchOK(100, 110, 100_000))
	assert.True(t, StretchOK(100, 90, 100_000))
	assert.False(t, StretchOK(100, 111, 100_000))

	// swapping roles needs a different epsilon: 110 -> 100 is a 9.09% change
	assert.False(t, StretchOK(110, 100, 90_000))
	assert.True(t, StretchOK(110, 100, 90_910))
}

func TestStretchExcess(t *testing.T) {
	assert.Equal(t, int64(0), StretchExcess(16, 16, 0))
	assert.Equal(t, int64(16_000_000), StretchExcess(16, 0, 0))
	assert.Equal(t, int64(0), StretchExcess(100, 110, 100_000))
	assert.Equal(t, int64(1_000_000), StretchExcess(100, 111, 100_000))
}

func TestSquaredDistance(t *testing.T) {
	assert.Equal(t, int64(25), SquaredDistance(Pt(0, 0), Pt(3, 4)))
	assert.Equal(t, int64(25), SquaredDistance(Pt(3, 4), Pt(0, 0)))
	assert.Equal(t, int64(0), SquaredDistance(Pt(-2, 7), Pt(-2, 7)))
}

func TestBounds(t *testing.T) {
	r := Bounds([]Point{Pt(3, 4), Pt(-1, 9)}, []Point{Pt(5, 0)})
	assert.Equal(t, Rect{Min: Pt(-1, 0), Max: Pt(5, 9)}, r)
	assert.Equal(t, 7, r.Dx())
	assert.Equal(t, 10, r.Dy())
	assert.True(t, r.Contains(Pt(5, 9)))
	assert.False(t, r.Contains(Pt(6, 9)))
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Pt(3, -4))
	require.NoError(t, err)
	assert.JSONEq(t, `[3,-4]`, string(data))

	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[7, 8]`), &p))
	assert.Equal(t, Pt(7, 8), p)

	assert.Error(t, json.Unmarshal([]byte(`[1, 2, 3]`), &p))
}
