// Package geom holds the small planar types shared by the world generator.
package geom

import (
	"fmt"
	"math"
)

// Point is a position in world units. Y grows downward.
type Point struct {
	X, Y float64
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle [X0,X1]x[Y0,Y1].
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// RectAt builds the rectangle with the given origin and dimensions.
func RectAt(origin, dims Point) Rect {
	return Rect{X0: origin.X, Y0: origin.Y, X1: origin.X + dims.X, Y1: origin.Y + dims.Y}
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Contains reports whether p lies in the closed rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// ContainsStrict reports whether p lies in the open rectangle.
func (r Rect) ContainsStrict(p Point) bool {
	return p.X > r.X0 && p.X < r.X1 && p.Y > r.Y0 && p.Y < r.Y1
}

// Side names one bounding line of a region rectangle.
type Side uint8

const (
	SideNone Side = iota
	SideLeft
	SideRight
	SideTop
	SideBottom
)

var sideNames = [...]string{"none", "left", "right", "top", "bottom"}

func (s Side) String() string {
	if int(s) < len(sideNames) {
		return sideNames[s]
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// Valid reports whether s is one of the four bounding lines.
func (s Side) Valid() bool {
	return s >= SideLeft && s <= SideBottom
}

// Opposite returns the side a neighbour shares with s.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	}
	return SideNone
}

// Vertical reports whether the side is a vertical line (left or right).
func (s Side) Vertical() bool {
	return s == SideLeft || s == SideRight
}

// Near returns the first side of r whose line lies strictly within tol of p,
// testing left, right, top and bottom in that order.
func (r Rect) Near(p Point, tol float64) Side {
	switch {
	case math.Abs(p.X-r.X0) < tol:
		return SideLeft
	case math.Abs(p.X-r.X1) < tol:
		return SideRight
	case math.Abs(p.Y-r.Y0) < tol:
		return SideTop
	case math.Abs(p.Y-r.Y1) < tol:
		return SideBottom
	}
	return SideNone
}

// NearSide reports whether p lies strictly within tol of side s of r.
func (r Rect) NearSide(p Point, s Side, tol float64) bool {
	switch s {
	case SideLeft:
		return math.Abs(p.X-r.X0) < tol
	case SideRight:
		return math.Abs(p.X-r.X1) < tol
	case SideTop:
		return math.Abs(p.Y-r.Y0) < tol
	case SideBottom:
		return math.Abs(p.Y-r.Y1) < tol
	}
	return false
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
