package voronoi

import (
	"math"
	"sort"

	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

func eq(a, b float64) bool { return math.Abs(a-b) < epsilon }
func lt(a, b float64) bool { return b-a > epsilon }
func gt(a, b float64) bool { return a-b > epsilon }

// connectEdge gives a dangling edge its missing end point on the bounding
// box. It reports false when the edge cannot be visible.
func (s *sweep) connectEdge(ei int, bb geom.Rect) bool {
	e := &s.edges[ei]
	if e.hasB {
		return true
	}

	va, hasA := e.va, e.hasA
	xl, xr, yt, yb := bb.X0, bb.X1, bb.Y0, bb.Y1
	ls, rs := s.cells[e.l].site, s.cells[e.r].site
	lx, ly, rx, ry := ls.X, ls.Y, rs.X, rs.Y
	fx, fy := (lx+rx)/2, (ly+ry)/2

	// Cells touching this edge will need closing.
	s.cells[e.l].closeMe = true
	s.cells[e.r].closeMe = true

	var fm, fb float64
	vertical := eq(ry, ly)
	if !vertical {
		fm = (lx - rx) / (ry - ly)
		fb = fy - fm*fx
	}

	var vb geom.Point
	switch {
	case vertical:
		if fx < xl || fx >= xr {
			return false
		}
		if lx > rx {
			if !hasA {
				va = geom.Point{X: fx, Y: yt}
			} else if va.Y >= yb {
				return false
			}
			vb = geom.Point{X: fx, Y: yb}
		} else {
			if !hasA {
				va = geom.Point{X: fx, Y: yb}
			} else if va.Y < yt {
				return false
			}
			vb = geom.Point{X: fx, Y: yt}
		}
	case fm < -1 || fm > 1:
		// Closer to vertical: connect to top or bottom.
		if lx > rx {
			if !hasA {
				va = geom.Point{X: (yt - fb) / fm, Y: yt}
			} else if va.Y >= yb {
				return false
			}
			vb = geom.Point{X: (yb - fb) / fm, Y: yb}
		} else {
			if !hasA {
				va = geom.Point{X: (yb - fb) / fm, Y: yb}
			} else if va.Y < yt {
				return false
			}
			vb = geom.Point{X: (yt - fb) / fm, Y: yt}
		}
	default:
		// Closer to horizontal: connect to left or right.
		if ly < ry {
			if !hasA {
				va = geom.Point{X: xl, Y: fm*xl + fb}
			} else if va.X >= xr {
				return false
			}
			vb = geom.Point{X: xr, Y: fm*xr + fb}
		} else {
			if !hasA {
				va = geom.Point{X: xr, Y: fm*xr + fb}
			} else if va.X < xl {
				return false
			}
			vb = geom.Point{X: xl, Y: fm*xl + fb}
		}
	}
	e.va, e.hasA = va, true
	e.vb, e.hasB = vb, true
	return true
}

// clipEdge clips an edge to the bounding box with Liang-Barsky. It reports
// false when the edge lies wholly outside.
func (s *sweep) clipEdge(ei int, bb geom.Rect) bool {
	e := &s.edges[ei]
	ax, ay := e.va.X, e.va.Y
	dx, dy := e.vb.X-ax, e.vb.Y-ay
	t0, t1 := 0.0, 1.0

	// Each boundary is p*t <= q for the parametric segment.
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}
	if !clip(-dx, ax-bb.X0) || !clip(dx, bb.X1-ax) || !clip(-dy, ay-bb.Y0) || !clip(dy, bb.Y1-ay) {
		return false
	}

	if t0 > 0 {
		e.va = geom.Point{X: ax + t0*dx, Y: ay + t0*dy}
	}
	if t1 < 1 {
		e.vb = geom.Point{X: ax + t1*dx, Y: ay + t1*dy}
	}
	if t0 > 0 || t1 < 1 {
		s.cells[e.l].closeMe = true
		s.cells[e.r].closeMe = true
	}
	return true
}

// clipEdges connects dangling edges to the box and drops edges that are
// outside it or have collapsed to a point.
func (s *sweep) clipEdges(bb geom.Rect) {
	for ei := range s.edges {
		if !s.connectEdge(ei, bb) || !s.clipEdge(ei, bb) {
			s.edges[ei].removed = true
			continue
		}
		e := &s.edges[ei]
		if math.Abs(e.va.X-e.vb.X) < epsilon && math.Abs(e.va.Y-e.vb.Y) < epsilon {
			e.removed = true
		}
	}
}

// prepareHalves drops half-edges whose edge did not survive clipping and
// orders the rest counter-clockwise.
func (s *sweep) prepareHalves(cell int) int {
	c := &s.cells[cell]
	kept := c.halves[:0]
	for _, h := range c.halves {
		e := &s.edges[h.edge]
		if e.removed || !e.hasA || !e.hasB {
			continue
		}
		kept = append(kept, h)
	}
	c.halves = kept
	sort.SliceStable(c.halves, func(i, j int) bool {
		return c.halves[i].angle > c.halves[j].angle
	})
	return len(c.halves)
}

// side of the bounding box walked while closing a cell.
const (
	walkLeft = iota
	walkBottom
	walkRight
	walkTop
)

// closeCells adds border edges so that every cell's half-edge loop is
// closed. It reports the cells it could not close.
func (s *sweep) closeCells(bb geom.Rect) []int {
	var failed []int
	for cell := range s.cells {
		if s.prepareHalves(cell) == 0 || !s.cells[cell].closeMe {
			continue
		}
		if !s.closeCell(cell, bb) {
			failed = append(failed, cell)
		}
		s.cells[cell].closeMe = false
	}
	return failed
}

func (s *sweep) closeCell(cell int, bb geom.Rect) bool {
	xl, xr, yt, yb := bb.X0, bb.X1, bb.Y0, bb.Y1

	for i := 0; i < len(s.cells[cell].halves); i++ {
		halves := s.cells[cell].halves
		va := s.halfEnd(cell, halves[i])
		next := halves[(i+1)%len(halves)]
		vz := s.halfStart(cell, next)

		if math.Abs(va.X-vz.X) < epsilon && math.Abs(va.Y-vz.Y) < epsilon {
			if va != vz {
				s.setHalfStart(cell, next, va)
			}
			continue
		}

		var side int
		switch {
		case eq(va.X, xl) && lt(va.Y, yb):
			side = walkLeft
		case eq(va.Y, yb) && lt(va.X, xr):
			side = walkBottom
		case eq(va.X, xr) && gt(va.Y, yt):
			side = walkRight
		case eq(va.Y, yt) && gt(va.X, xl):
			side = walkTop
		default:
			return false
		}

		closed := false
		for range 5 {
			var vb geom.Point
			var last bool
			switch side {
			case walkLeft:
				last = eq(vz.X, xl)
				vb = geom.Point{X: xl, Y: yb}
			case walkBottom:
				last = eq(vz.Y, yb)
				vb = geom.Point{X: xr, Y: yb}
			case walkRight:
				last = eq(vz.X, xr)
				vb = geom.Point{X: xr, Y: yt}
			case walkTop:
				last = eq(vz.Y, yt)
				vb = geom.Point{X: xl, Y: yt}
			}
			if last {
				vb = vz
			}

			ei := s.createBorderEdge(cell, va, vb)
			i++
			s.insertHalf(cell, i, buildHalf{edge: ei, angle: borderAngle(va, vb)})
			if last {
				closed = true
				break
			}
			va = vb
			side = (side + 1) % 4
		}
		if !closed {
			return false
		}
	}
	return true
}

func (s *sweep) insertHalf(cell, at int, h buildHalf) {
	c := &s.cells[cell]
	c.halves = append(c.halves, buildHalf{})
	copy(c.halves[at+1:], c.halves[at:])
	c.halves[at] = h
}
