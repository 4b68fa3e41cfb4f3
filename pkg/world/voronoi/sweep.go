package voronoi

import (
	"math"

	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

const epsilon = 1e-9

// buildEdge is an edge while the sweep runs; endpoints are plain points
// until the diagram is frozen into its vertex arena.
type buildEdge struct {
	l, r       int // cell indices, r is NoCell for border edges
	va, vb     geom.Point
	hasA, hasB bool
	removed    bool
}

type buildHalf struct {
	edge  int
	angle float64
}

type buildCell struct {
	site    geom.Point
	active  bool
	halves  []buildHalf
	closeMe bool
}

type beachsection struct {
	node   *rbNode[*beachsection]
	cell   int
	site   geom.Point
	circle *circleEvent
	edge   int
}

type circleEvent struct {
	node    *rbNode[*circleEvent]
	arc     *beachsection
	x, y    float64
	ycenter float64
}

// sweep holds the state of one run of Fortune's algorithm.
type sweep struct {
	cells []buildCell
	edges []buildEdge

	beachline   rbTree[*beachsection]
	circles     rbTree[*circleEvent]
	firstCircle *circleEvent
}

func (s *sweep) setStart(ei, l, r int, v geom.Point) {
	e := &s.edges[ei]
	switch {
	case !e.hasA && !e.hasB:
		e.va, e.hasA = v, true
		e.l, e.r = l, r
	case e.l == r:
		e.vb, e.hasB = v, true
	default:
		e.va, e.hasA = v, true
	}
}

func (s *sweep) setEnd(ei, l, r int, v geom.Point) {
	s.setStart(ei, r, l, v)
}

func (s *sweep) createEdge(l, r int, va, vb *geom.Point) int {
	ei := len(s.edges)
	s.edges = append(s.edges, buildEdge{l: l, r: r})
	if va != nil {
		s.setStart(ei, l, r, *va)
	}
	if vb != nil {
		s.setEnd(ei, l, r, *vb)
	}
	s.cells[l].halves = append(s.cells[l].halves, buildHalf{edge: ei, angle: s.siteAngle(l, r)})
	s.cells[r].halves = append(s.cells[r].halves, buildHalf{edge: ei, angle: s.siteAngle(r, l)})
	return ei
}

func (s *sweep) createBorderEdge(cell int, va, vb geom.Point) int {
	ei := len(s.edges)
	s.edges = append(s.edges, buildEdge{l: cell, r: NoCell, va: va, vb: vb, hasA: true, hasB: true})
	return ei
}

func (s *sweep) siteAngle(from, to int) float64 {
	a, b := s.cells[from].site, s.cells[to].site
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// borderAngle orients a single-cell edge the way a two-cell edge would be.
func borderAngle(va, vb geom.Point) float64 {
	return math.Atan2(vb.X-va.X, va.Y-vb.Y)
}

func (s *sweep) halfStart(cell int, h buildHalf) geom.Point {
	e := &s.edges[h.edge]
	if e.l == cell {
		return e.va
	}
	return e.vb
}

func (s *sweep) halfEnd(cell int, h buildHalf) geom.Point {
	e := &s.edges[h.edge]
	if e.l == cell {
		return e.vb
	}
	return e.va
}

func (s *sweep) setHalfStart(cell int, h buildHalf, p geom.Point) {
	e := &s.edges[h.edge]
	if e.l == cell {
		e.va = p
	} else {
		e.vb = p
	}
}

// leftBreakPoint returns the x of the left break point of arc at the given
// sweep line position.
func leftBreakPoint(arc *beachsection, directrix float64) float64 {
	rfocx, rfocy := arc.site.X, arc.site.Y
	pby2 := rfocy - directrix
	if pby2 == 0 {
		return rfocx
	}

	lArc := arc.node.prev
	if lArc == nil {
		return math.Inf(-1)
	}
	lfocx, lfocy := lArc.value.site.X, lArc.value.site.Y
	plby2 := lfocy - directrix
	if plby2 == 0 {
		return lfocx
	}

	hl := lfocx - rfocx
	aby2 := 1/pby2 - 1/plby2
	b := hl / plby2
	if aby2 != 0 {
		return (-b+math.Sqrt(b*b-2*aby2*(hl*hl/(-2*plby2)-lfocy+plby2/2+rfocy-pby2/2)))/aby2 + rfocx
	}
	// Equal distance to the directrix: the break point is midway.
	return (rfocx + lfocx) / 2
}

func rightBreakPoint(arc *beachsection, directrix float64) float64 {
	if rArc := arc.node.next; rArc != nil {
		return leftBreakPoint(rArc.value, directrix)
	}
	if arc.site.Y == directrix {
		return arc.site.X
	}
	return math.Inf(1)
}

func (s *sweep) detachBeachsection(arc *beachsection) {
	s.detachCircleEvent(arc)
	s.beachline.remove(arc.node)
}

func (s *sweep) removeBeachsection(arc *beachsection) {
	circle := arc.circle
	x, y := circle.x, circle.ycenter
	vertex := geom.Point{X: x, Y: y}
	prev := arc.node.prev
	next := arc.node.next
	disappearing := []*beachsection{arc}

	s.detachBeachsection(arc)

	// Several arcs can collapse at the same vertex; gather them all.
	lArc := prev.value
	for lArc.circle != nil && math.Abs(x-lArc.circle.x) < epsilon && math.Abs(y-lArc.circle.ycenter) < epsilon {
		prev = lArc.node.prev
		disappearing = append([]*beachsection{lArc}, disappearing...)
		s.detachBeachsection(lArc)
		lArc = prev.value
	}
	disappearing = append([]*beachsection{lArc}, disappearing...)
	s.detachCircleEvent(lArc)

	rArc := next.value
	for rArc.circle != nil && math.Abs(x-rArc.circle.x) < epsilon && math.Abs(y-rArc.circle.ycenter) < epsilon {
		next = rArc.node.next
		disappearing = append(disappearing, rArc)
		s.detachBeachsection(rArc)
		rArc = next.value
	}
	disappearing = append(disappearing, rArc)
	s.detachCircleEvent(rArc)

	for i := 1; i < len(disappearing); i++ {
		r, l := disappearing[i], disappearing[i-1]
		s.setStart(r.edge, l.cell, r.cell, vertex)
	}

	lArc = disappearing[0]
	rArc = disappearing[len(disappearing)-1]
	rArc.edge = s.createEdge(lArc.cell, rArc.cell, nil, &vertex)

	s.attachCircleEvent(lArc)
	s.attachCircleEvent(rArc)
}

func (s *sweep) addBeachsection(cell int) {
	site := s.cells[cell].site
	x, directrix := site.X, site.Y

	var lNode, rNode *rbNode[*beachsection]
	node := s.beachline.root
	for node != nil {
		dxl := leftBreakPoint(node.value, directrix) - x
		if dxl > epsilon {
			node = node.left
			continue
		}
		dxr := x - rightBreakPoint(node.value, directrix)
		if dxr > epsilon {
			if node.right == nil {
				lNode = node
				break
			}
			node = node.right
			continue
		}
		switch {
		case dxl > -epsilon:
			lNode, rNode = node.prev, node
		case dxr > -epsilon:
			lNode, rNode = node, node.next
		default:
			lNode, rNode = node, node
		}
		break
	}

	var lArc, rArc *beachsection
	if lNode != nil {
		lArc = lNode.value
	}
	if rNode != nil {
		rArc = rNode.value
	}

	newArc := &beachsection{cell: cell, site: site, edge: -1}
	if lArc == nil {
		newArc.node = s.beachline.insertSuccessor(nil, newArc)
	} else {
		newArc.node = s.beachline.insertSuccessor(lArc.node, newArc)
	}

	switch {
	case lArc == nil && rArc == nil:
		// First arc on the beachline.
		return

	case lArc == rArc:
		// The new arc splits an existing one.
		s.detachCircleEvent(lArc)
		rArc = &beachsection{cell: lArc.cell, site: lArc.site, edge: -1}
		rArc.node = s.beachline.insertSuccessor(newArc.node, rArc)
		newArc.edge = s.createEdge(lArc.cell, newArc.cell, nil, nil)
		rArc.edge = newArc.edge
		s.attachCircleEvent(lArc)
		s.attachCircleEvent(rArc)

	case rArc == nil:
		// Every arc so far shares this site's y; the new arc goes last.
		newArc.edge = s.createEdge(lArc.cell, newArc.cell, nil, nil)

	default:
		// The new arc lands exactly on a break point.
		s.detachCircleEvent(lArc)
		s.detachCircleEvent(rArc)

		ls, rs := lArc.site, rArc.site
		ax, ay := ls.X, ls.Y
		bx, by := site.X-ax, site.Y-ay
		cx, cy := rs.X-ax, rs.Y-ay
		d := 2 * (bx*cy - by*cx)
		hb := bx*bx + by*by
		hc := cx*cx + cy*cy
		vertex := geom.Point{X: (cy*hb-by*hc)/d + ax, Y: (bx*hc-cx*hb)/d + ay}

		s.setStart(rArc.edge, lArc.cell, rArc.cell, vertex)
		newArc.edge = s.createEdge(lArc.cell, cell, nil, &vertex)
		rArc.edge = s.createEdge(cell, rArc.cell, nil, &vertex)
		s.attachCircleEvent(lArc)
		s.attachCircleEvent(rArc)
	}
}

func (s *sweep) attachCircleEvent(arc *beachsection) {
	lNode, rNode := arc.node.prev, arc.node.next
	if lNode == nil || rNode == nil {
		return
	}
	ls, cs, rs := lNode.value.site, arc.site, rNode.value.site
	if lNode.value.cell == rNode.value.cell {
		return
	}

	bx, by := cs.X, cs.Y
	ax, ay := ls.X-bx, ls.Y-by
	cx, cy := rs.X-bx, rs.Y-by

	// Clockwise l->c->r never converges.
	d := 2 * (ax*cy - ay*cx)
	if d >= -2e-12 {
		return
	}

	ha := ax*ax + ay*ay
	hc := cx*cx + cy*cy
	x := (cy*ha - ay*hc) / d
	y := (ax*hc - cx*ha) / d
	ycenter := y + by

	ev := &circleEvent{
		arc:     arc,
		x:       x + bx,
		y:       ycenter + math.Sqrt(x*x+y*y),
		ycenter: ycenter,
	}
	arc.circle = ev

	var predecessor *rbNode[*circleEvent]
	node := s.circles.root
	for node != nil {
		v := node.value
		if ev.y < v.y || (ev.y == v.y && ev.x <= v.x) {
			if node.left == nil {
				predecessor = node.prev
				break
			}
			node = node.left
		} else {
			if node.right == nil {
				predecessor = node
				break
			}
			node = node.right
		}
	}
	ev.node = s.circles.insertSuccessor(predecessor, ev)
	if predecessor == nil {
		s.firstCircle = ev
	}
}

func (s *sweep) detachCircleEvent(arc *beachsection) {
	ev := arc.circle
	if ev == nil {
		return
	}
	if ev.node.prev == nil {
		if ev.node.next != nil {
			s.firstCircle = ev.node.next.value
		} else {
			s.firstCircle = nil
		}
	}
	s.circles.remove(ev.node)
	arc.circle = nil
}
