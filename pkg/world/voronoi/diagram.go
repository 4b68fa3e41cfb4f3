// Package voronoi computes bounded Voronoi diagrams with Fortune's sweep.
//
// The diagram is an arena: vertices, edges and cells live in slices and
// refer to each other by index. A vertex shared by several edges is stored
// once, so moving it moves every edge that touches it.
package voronoi

import (
	"math"
	"sort"

	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

// mergeDistance is the distance below which two end points are one vertex.
const mergeDistance = 1e-7

// NoCell marks the missing side of an edge on the bounding box.
const NoCell = -1

// Vertex is a corner shared by edges.
type Vertex struct {
	X, Y   float64
	Border geom.Side
}

// Point returns the vertex position.
func (v Vertex) Point() geom.Point {
	return geom.Point{X: v.X, Y: v.Y}
}

// Edge separates LeftCell from RightCell. Edges on the bounding box have a
// RightCell of NoCell.
type Edge struct {
	LeftCell, RightCell int
	VA, VB              int
	Border              geom.Side
}

// HalfEdge is one cell's view of an edge.
type HalfEdge struct {
	Edge  int
	Angle float64
}

// Cell is the region of the plane closest to its site.
type Cell struct {
	Site geom.Point

	// HalfEdges form a closed counter-clockwise loop.
	HalfEdges []HalfEdge
	Border    geom.Side

	// Degenerate cells have no area: their site was not finite, repeated
	// an earlier site, or could not be closed. Their loop is empty.
	Degenerate bool
}

// Diagram is a bounded Voronoi diagram. Cells[i] belongs to the i-th
// input site.
type Diagram struct {
	Bounds   geom.Rect
	Cells    []Cell
	Edges    []Edge
	Vertices []Vertex
}

// Compute builds the Voronoi diagram of sites clipped to bounds.
func Compute(sites []geom.Point, bounds geom.Rect) *Diagram {
	s := &sweep{cells: make([]buildCell, len(sites))}
	order := make([]int, 0, len(sites))
	for i, p := range sites {
		s.cells[i].site = p
		if p.Finite() {
			order = append(order, i)
		}
	}

	// Sweep from the top, ties broken left to right. Stable so the first
	// of several duplicates keeps the cell.
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := sites[order[a]], sites[order[b]]
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		return pa.X < pb.X
	})
	active := make([]int, 0, len(order))
	for k, i := range order {
		if k > 0 && sites[i] == sites[active[len(active)-1]] {
			continue
		}
		s.cells[i].active = true
		active = append(active, i)
	}

	var failed []int
	if len(active) == 1 {
		s.boxCell(active[0], bounds)
	} else {
		s.run(active)
		s.clipEdges(bounds)
		failed = s.closeCells(bounds)
	}
	for _, c := range failed {
		s.cells[c].active = false
	}
	return s.freeze(bounds)
}

func (s *sweep) run(order []int) {
	next := 0
	for {
		circle := s.firstCircle
		if next < len(order) {
			site := s.cells[order[next]].site
			if circle == nil || site.Y < circle.y || (site.Y == circle.y && site.X < circle.x) {
				s.addBeachsection(order[next])
				next++
				continue
			}
		}
		if circle == nil {
			return
		}
		s.removeBeachsection(circle.arc)
	}
}

// boxCell gives a lone site the whole bounding box.
func (s *sweep) boxCell(cell int, bb geom.Rect) {
	corners := []geom.Point{
		{X: bb.X0, Y: bb.Y0},
		{X: bb.X0, Y: bb.Y1},
		{X: bb.X1, Y: bb.Y1},
		{X: bb.X1, Y: bb.Y0},
	}
	for i, va := range corners {
		vb := corners[(i+1)%len(corners)]
		ei := s.createBorderEdge(cell, va, vb)
		s.cells[cell].halves = append(s.cells[cell].halves, buildHalf{edge: ei, angle: borderAngle(va, vb)})
	}
}

// freeze interns vertices and renumbers surviving edges into a Diagram.
func (s *sweep) freeze(bounds geom.Rect) *Diagram {
	d := &Diagram{Bounds: bounds, Cells: make([]Cell, len(s.cells))}

	// Points closer than mergeDistance become one vertex. Buckets are
	// mergeDistance wide, so a match is always in a neighbouring bucket.
	type bucket struct{ x, y int64 }
	index := make(map[bucket][]int)
	key := func(p geom.Point) bucket {
		return bucket{int64(math.Floor(p.X / mergeDistance)), int64(math.Floor(p.Y / mergeDistance))}
	}
	intern := func(p geom.Point) int {
		k := key(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, i := range index[bucket{k.x + dx, k.y + dy}] {
					v := d.Vertices[i]
					if math.Abs(v.X-p.X) < mergeDistance && math.Abs(v.Y-p.Y) < mergeDistance {
						return i
					}
				}
			}
		}
		i := len(d.Vertices)
		d.Vertices = append(d.Vertices, Vertex{X: p.X, Y: p.Y})
		index[k] = append(index[k], i)
		return i
	}

	remap := make([]int, len(s.edges))
	for ei, e := range s.edges {
		if e.removed || !e.hasA || !e.hasB {
			remap[ei] = -1
			continue
		}
		remap[ei] = len(d.Edges)
		d.Edges = append(d.Edges, Edge{LeftCell: e.l, RightCell: e.r, VA: intern(e.va), VB: intern(e.vb)})
	}

	for i, c := range s.cells {
		cell := Cell{Site: c.site}
		if c.active {
			for _, h := range c.halves {
				if remap[h.edge] < 0 {
					continue
				}
				cell.HalfEdges = append(cell.HalfEdges, HalfEdge{Edge: remap[h.edge], Angle: h.angle})
			}
		}
		cell.Degenerate = len(cell.HalfEdges) == 0
		d.Cells[i] = cell
	}
	return d
}

// Start returns the vertex a cell's half-edge begins at.
func (d *Diagram) Start(cell int, h HalfEdge) int {
	e := d.Edges[h.Edge]
	if e.LeftCell == cell {
		return e.VA
	}
	return e.VB
}

// End returns the vertex a cell's half-edge ends at.
func (d *Diagram) End(cell int, h HalfEdge) int {
	e := d.Edges[h.Edge]
	if e.LeftCell == cell {
		return e.VB
	}
	return e.VA
}

// Loop returns the vertex indices around a cell in half-edge order.
func (d *Diagram) Loop(cell int) []int {
	c := d.Cells[cell]
	out := make([]int, len(c.HalfEdges))
	for i, h := range c.HalfEdges {
		out[i] = d.Start(cell, h)
	}
	return out
}

// Closed reports whether every half-edge of the cell ends where the next
// one starts.
func (d *Diagram) Closed(cell int) bool {
	c := d.Cells[cell]
	for i, h := range c.HalfEdges {
		next := c.HalfEdges[(i+1)%len(c.HalfEdges)]
		if d.End(cell, h) != d.Start(cell, next) {
			return false
		}
	}
	return true
}

// Contains tests p against a cell: 1 inside, 0 on its boundary, -1 outside.
// Half-edges that have collapsed to a point are ignored.
func (d *Diagram) Contains(cell int, p geom.Point) int {
	c := d.Cells[cell]
	if c.Degenerate {
		return -1
	}
	onBorder := false
	for _, h := range c.HalfEdges {
		a := d.Vertices[d.Start(cell, h)]
		b := d.Vertices[d.End(cell, h)]
		if a.X == b.X && a.Y == b.Y {
			continue
		}
		r := (p.Y-a.Y)*(b.X-a.X) - (p.X-a.X)*(b.Y-a.Y)
		switch {
		case r > 0:
			return -1
		case r == 0:
			onBorder = true
		}
	}
	if onBorder {
		return 0
	}
	return 1
}

// Area returns the polygon area of a cell.
func (d *Diagram) Area(cell int) float64 {
	loop := d.Loop(cell)
	var sum float64
	for i, vi := range loop {
		a := d.Vertices[vi]
		b := d.Vertices[loop[(i+1)%len(loop)]]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// Find returns the first cell containing p, or false.
func (d *Diagram) Find(p geom.Point) (int, bool) {
	for i := range d.Cells {
		if d.Contains(i, p) >= 0 {
			return i, true
		}
	}
	return 0, false
}
