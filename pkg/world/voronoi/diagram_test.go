package voronoi

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

var box = geom.Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}

func randomSites(seed int64, n int, b geom.Rect) []geom.Point {
	rng := rand.New(rand.NewSource(seed))
	sites := make([]geom.Point, n)
	for i := range sites {
		sites[i] = geom.Point{
			X: b.X0 + rng.Float64()*b.Width(),
			Y: b.Y0 + rng.Float64()*b.Height(),
		}
	}
	return sites
}

func gridSites(n int, b geom.Rect) []geom.Point {
	var sites []geom.Point
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			sites = append(sites, geom.Point{
				X: b.X0 + (float64(i)+0.5)*b.Width()/float64(n),
				Y: b.Y0 + (float64(j)+0.5)*b.Height()/float64(n),
			})
		}
	}
	return sites
}

// checkWellFormed verifies loops, edge sides and that areas tile the box.
func checkWellFormed(t *testing.T, d *Diagram) {
	t.Helper()
	var total float64
	for i, c := range d.Cells {
		if c.Degenerate {
			continue
		}
		if len(c.HalfEdges) < 3 {
			t.Fatalf("cell %d has %d half-edges", i, len(c.HalfEdges))
		}
		if !d.Closed(i) {
			t.Fatalf("cell %d loop is not closed", i)
		}
		total += d.Area(i)
	}
	if want := d.Bounds.Width() * d.Bounds.Height(); math.Abs(total-want) > want*1e-9 {
		t.Fatalf("cell areas sum to %f, want %f", total, want)
	}

	for i, e := range d.Edges {
		if e.LeftCell == NoCell {
			t.Fatalf("edge %d has no left cell", i)
		}
		if e.RightCell != NoCell {
			continue
		}
		a, b := d.Vertices[e.VA].Point(), d.Vertices[e.VB].Point()
		onBox := false
		for _, s := range []geom.Side{geom.SideLeft, geom.SideRight, geom.SideTop, geom.SideBottom} {
			if d.Bounds.NearSide(a, s, 1e-6) && d.Bounds.NearSide(b, s, 1e-6) {
				onBox = true
			}
		}
		if !onBox {
			t.Fatalf("single-sided edge %d (%v-%v) is not on the bounding box", i, a, b)
		}
	}
	for _, v := range d.Vertices {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) {
			t.Fatal("diagram contains a NaN vertex")
		}
		if !d.Bounds.Contains(geom.Point{X: math.Round(v.X*1e6) / 1e6, Y: math.Round(v.Y*1e6) / 1e6}) {
			t.Fatalf("vertex %v outside %v", v, d.Bounds)
		}
	}
}

// checkNearest samples the box and verifies the containing cell owns the
// nearest site.
func checkNearest(t *testing.T, d *Diagram, sites []geom.Point) {
	t.Helper()
	b := d.Bounds
	for j := 0; j < 40; j++ {
		for i := 0; i < 40; i++ {
			p := geom.Point{X: b.X0 + (float64(i)+0.37)*b.Width()/40, Y: b.Y0 + (float64(j)+0.61)*b.Height()/40}

			inside := 0
			owner := -1
			for c := range d.Cells {
				if d.Contains(c, p) == 1 {
					inside++
					owner = c
				}
			}
			if inside > 1 {
				t.Fatalf("point %v strictly inside %d cells", p, inside)
			}
			if _, ok := d.Find(p); !ok {
				t.Fatalf("point %v not covered by any cell", p)
			}
			if owner < 0 {
				continue
			}
			best := math.Inf(1)
			for _, s := range sites {
				best = math.Min(best, p.Dist(s))
			}
			if got := p.Dist(sites[owner]); got-best > 1e-6 {
				t.Fatalf("point %v in cell %d at distance %f, nearest site at %f", p, owner, got, best)
			}
		}
	}
}

func TestComputeGrid(t *testing.T) {
	sites := gridSites(4, box)
	d := Compute(sites, box)

	if got := len(d.Cells); got != len(sites) {
		t.Fatalf("len(Cells) = %d, want %d", got, len(sites))
	}
	checkWellFormed(t, d)
	checkNearest(t, d, sites)
	for i := range d.Cells {
		if a := d.Area(i); math.Abs(a-625) > 1e-6 {
			t.Errorf("cell %d area = %f, want 625", i, a)
		}
	}
}

func TestComputeRandom(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		sites := randomSites(seed, 200, box)
		d := Compute(sites, box)
		if got := len(d.Cells); got != len(sites) {
			t.Fatalf("seed %d: len(Cells) = %d, want %d", seed, got, len(sites))
		}
		for i, c := range d.Cells {
			if c.Degenerate {
				t.Fatalf("seed %d: cell %d is degenerate", seed, i)
			}
			if c.Site != sites[i] {
				t.Fatalf("seed %d: cell %d site %v, want %v", seed, i, c.Site, sites[i])
			}
		}
		checkWellFormed(t, d)
		checkNearest(t, d, sites)
	}
}

func TestComputeOffsetBounds(t *testing.T) {
	b := geom.Rect{X0: 512, Y0: -512, X1: 1024, Y1: 0}
	sites := randomSites(3, 64, b)
	d := Compute(sites, b)
	checkWellFormed(t, d)
	checkNearest(t, d, sites)
}

func TestComputeDeterministic(t *testing.T) {
	sites := randomSites(42, 100, box)
	a := Compute(sites, box)
	b := Compute(sites, box)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("diagrams differ (-first +second):\n%s", diff)
	}
}

func TestComputeSingleSite(t *testing.T) {
	d := Compute([]geom.Point{{X: 30, Y: 70}}, box)
	if len(d.Cells) != 1 || d.Cells[0].Degenerate {
		t.Fatalf("want one live cell, got %+v", d.Cells)
	}
	checkWellFormed(t, d)
	if got := d.Contains(0, geom.Point{X: 99, Y: 1}); got != 1 {
		t.Errorf("Contains(corner) = %d, want 1", got)
	}
}

func TestComputeEmpty(t *testing.T) {
	d := Compute(nil, box)
	if len(d.Cells) != 0 || len(d.Edges) != 0 {
		t.Fatalf("want an empty diagram, got %d cells and %d edges", len(d.Cells), len(d.Edges))
	}
	if _, ok := d.Find(geom.Point{X: 50, Y: 50}); ok {
		t.Error("Find should fail on an empty diagram")
	}
}

func TestComputeColinear(t *testing.T) {
	tests := []struct {
		name  string
		sites []geom.Point
		areas []float64
	}{
		{
			name:  "horizontal",
			sites: []geom.Point{{X: 10, Y: 50}, {X: 30, Y: 50}, {X: 50, Y: 50}},
			areas: []float64{2000, 2000, 6000},
		},
		{
			name:  "vertical",
			sites: []geom.Point{{X: 50, Y: 10}, {X: 50, Y: 30}, {X: 50, Y: 50}},
			areas: []float64{2000, 2000, 6000},
		},
		{
			name:  "diagonal",
			sites: []geom.Point{{X: 25, Y: 25}, {X: 75, Y: 75}},
			areas: []float64{5000, 5000},
		},
	}
	for _, tt := range tests {
		d := Compute(tt.sites, box)
		checkWellFormed(t, d)
		checkNearest(t, d, tt.sites)
		for i, want := range tt.areas {
			if got := d.Area(i); math.Abs(got-want) > 1e-6 {
				t.Errorf("%s: cell %d area = %f, want %f", tt.name, i, got, want)
			}
		}
	}
}

func TestComputeDegenerateSites(t *testing.T) {
	sites := []geom.Point{
		{X: 20, Y: 20},
		{X: math.NaN(), Y: 40},
		{X: 80, Y: 30},
		{X: 20, Y: 20},
		{X: 50, Y: math.Inf(1)},
		{X: 40, Y: 80},
	}
	d := Compute(sites, box)

	if got := len(d.Cells); got != len(sites) {
		t.Fatalf("len(Cells) = %d, want %d", got, len(sites))
	}
	wantDegenerate := []bool{false, true, false, true, true, false}
	for i, want := range wantDegenerate {
		if got := d.Cells[i].Degenerate; got != want {
			t.Errorf("cell %d degenerate = %v, want %v", i, got, want)
		}
		if d.Cells[i].Degenerate && len(d.Cells[i].HalfEdges) != 0 {
			t.Errorf("degenerate cell %d has half-edges", i)
		}
	}
	checkWellFormed(t, d)
	if got := d.Contains(1, geom.Point{X: 50, Y: 50}); got != -1 {
		t.Errorf("degenerate Contains = %d, want -1", got)
	}
}

func TestSharedVertices(t *testing.T) {
	d := Compute(gridSites(3, box), box)

	// The grid's inner corners are each shared by four edges.
	uses := make(map[int]int)
	for _, e := range d.Edges {
		uses[e.VA]++
		uses[e.VB]++
	}
	inner := 0
	for vi, n := range uses {
		v := d.Vertices[vi]
		if box.ContainsStrict(v.Point()) && n == 4 {
			inner++
		}
	}
	if inner != 4 {
		t.Fatalf("found %d interior vertices of degree 4, want 4", inner)
	}
}

func TestContainsBoundary(t *testing.T) {
	d := Compute([]geom.Point{{X: 25, Y: 50}, {X: 75, Y: 50}}, box)
	p := geom.Point{X: 50, Y: 50}
	for i := range d.Cells {
		if got := d.Contains(i, p); got != 0 {
			t.Errorf("Contains(%d, %v) = %d, want 0 on the shared edge", i, p, got)
		}
	}
	if got := d.Contains(0, geom.Point{X: 10, Y: 10}); got != 1 {
		t.Errorf("Contains(0, left) = %d, want 1", got)
	}
	if got := d.Contains(0, geom.Point{X: 90, Y: 10}); got != -1 {
		t.Errorf("Contains(0, right) = %d, want -1", got)
	}
}
