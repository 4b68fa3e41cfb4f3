package gen

import (
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
	"github.com/OCharnyshevich/biomemap/pkg/world/noise"
)

// maxEdgeJitter caps border jitter below half a division so border sites
// keep their order along the border.
const maxEdgeJitter = 0.45

// SiteConfig describes the site lattice of one region.
type SiteConfig struct {
	Origin     geom.Point
	Dimensions geom.Point
	Divisions  int

	// Relaxation scales interior jitter, in fractions of a division.
	Relaxation float64

	// SkipThreshold drops interior sites whose rarity noise falls below it.
	SkipThreshold float64

	Layout Layout
}

// SiteGenerator lays out jittered Voronoi sites for one region.
type SiteGenerator struct {
	cfg     SiteConfig
	perturb *noise.Field
	rarity  *noise.Field
}

// NewSiteGenerator creates a SiteGenerator. perturb should produce values in
// [-1, 1]; rarity in [0, 1]. A nil rarity field disables skipping.
func NewSiteGenerator(cfg SiteConfig, perturb, rarity *noise.Field) *SiteGenerator {
	return &SiteGenerator{cfg: cfg, perturb: perturb, rarity: rarity}
}

// Generate returns the sites in row-major order. All noise is sampled at
// world coordinates, so two regions sharing a border agree on its sites.
func (g *SiteGenerator) Generate() []geom.Point {
	if g.cfg.Divisions <= 0 {
		return nil
	}
	if g.cfg.Layout == LayoutSeed {
		return g.seedSites()
	}
	return g.edgeSites()
}

func (g *SiteGenerator) bounds() geom.Rect {
	return geom.RectAt(g.cfg.Origin, g.cfg.Dimensions)
}

// lattice returns the world coordinate of lattice index i along one axis,
// snapping the last index to the exact bound.
func lattice(lo, hi float64, i, n int) float64 {
	if i == n {
		return hi
	}
	return lo + float64(i)*(hi-lo)/float64(n)
}

func (g *SiteGenerator) edgeSites() []geom.Point {
	n := g.cfg.Divisions
	b := g.bounds()
	cw := b.Width() / float64(n)
	ch := b.Height() / float64(n)
	edgeAmp := min(g.cfg.Relaxation, maxEdgeJitter)

	sites := make([]geom.Point, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		y := lattice(b.Y0, b.Y1, j, n)
		onY := j == 0 || j == n
		for i := 0; i <= n; i++ {
			x := lattice(b.X0, b.X1, i, n)
			onX := i == 0 || i == n

			switch {
			case onX && onY:
				sites = append(sites, geom.Point{X: x, Y: y})
			case onY:
				sites = append(sites, geom.Point{X: x + g.perturb.Get(x, y)*edgeAmp*cw, Y: y})
			case onX:
				sites = append(sites, geom.Point{X: x, Y: y + g.perturb.Get(x, y)*edgeAmp*ch})
			default:
				if g.rarity != nil && g.rarity.Get(x, y) < g.cfg.SkipThreshold {
					continue
				}
				p := geom.Point{
					X: x + g.perturb.Get(x, y)*g.cfg.Relaxation*cw,
					Y: y + g.perturb.Get(-x, -y)*g.cfg.Relaxation*ch,
				}
				sites = append(sites, clampInside(p, b))
			}
		}
	}
	return sites
}

func (g *SiteGenerator) seedSites() []geom.Point {
	n := g.cfg.Divisions
	b := g.bounds()
	cw := b.Width() / float64(n)
	ch := b.Height() / float64(n)

	sites := make([]geom.Point, 0, n*n)
	for j := range n {
		y := b.Y0 + (float64(j)+0.5)*ch
		for i := range n {
			x := b.X0 + (float64(i)+0.5)*cw
			p := geom.Point{
				X: x + g.perturb.Get(x, y)*g.cfg.Relaxation*cw,
				Y: y + g.perturb.Get(-x, -y)*g.cfg.Relaxation*ch,
			}
			sites = append(sites, clampInside(p, b))
		}
	}
	return sites
}

// clampInside pulls p strictly inside b.
func clampInside(p geom.Point, b geom.Rect) geom.Point {
	ex := b.Width() * 1e-6
	ey := b.Height() * 1e-6
	return geom.Point{
		X: geom.Clamp(p.X, b.X0+ex, b.X1-ex),
		Y: geom.Clamp(p.Y, b.Y0+ey, b.Y1-ey),
	}
}
