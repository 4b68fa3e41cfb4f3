package noise

import "math"

// CubicBezier is a CSS style timing curve through (0,0), (X1,Y1), (X2,Y2)
// and (1,1). X1 and X2 must lie in [0, 1] for the curve to be a function.
type CubicBezier struct {
	X1, Y1, X2, Y2 float64
}

var (
	EaseIn    = CubicBezier{0.42, 0, 1, 1}
	EaseOut   = CubicBezier{0, 0, 0.58, 1}
	EaseInOut = CubicBezier{0.42, 0, 0.58, 1}

	// EaseHeight flattens lowlands and sharpens peaks.
	EaseHeight = CubicBezier{0.8, 0, 0.7, 1}
)

const (
	newtonIterations   = 8
	newtonMinSlope     = 1e-3
	subdivisionEpsilon = 1e-7
	subdivisionMaxIter = 32
)

func bezierCoeffs(a1, a2 float64) (a, b, c float64) {
	return 1 - 3*a2 + 3*a1, 3*a2 - 6*a1, 3 * a1
}

func bezierAt(t, a1, a2 float64) float64 {
	a, b, c := bezierCoeffs(a1, a2)
	return ((a*t+b)*t + c) * t
}

func bezierSlope(t, a1, a2 float64) float64 {
	a, b, c := bezierCoeffs(a1, a2)
	return 3*a*t*t + 2*b*t + c
}

// At maps x in [0, 1] through the curve. Values outside are clamped.
func (b CubicBezier) At(x float64) float64 {
	switch {
	case math.IsNaN(x) || x <= 0:
		return 0
	case x >= 1:
		return 1
	case b.X1 == b.Y1 && b.X2 == b.Y2:
		return x
	}
	return bezierAt(b.solve(x), b.Y1, b.Y2)
}

// solve finds the curve parameter whose x coordinate is x.
func (b CubicBezier) solve(x float64) float64 {
	t := x
	for range newtonIterations {
		slope := bezierSlope(t, b.X1, b.X2)
		if math.Abs(slope) < newtonMinSlope {
			break
		}
		cur := bezierAt(t, b.X1, b.X2) - x
		if math.Abs(cur) < subdivisionEpsilon {
			return t
		}
		t -= cur / slope
	}
	if t >= 0 && t <= 1 && math.Abs(bezierAt(t, b.X1, b.X2)-x) < subdivisionEpsilon {
		return t
	}

	lo, hi := 0.0, 1.0
	t = x
	for range subdivisionMaxIter {
		cur := bezierAt(t, b.X1, b.X2) - x
		if math.Abs(cur) < subdivisionEpsilon {
			break
		}
		if cur > 0 {
			hi = t
		} else {
			lo = t
		}
		t = (lo + hi) / 2
	}
	return t
}
