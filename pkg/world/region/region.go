// Package region builds one tile of the world map: its sites, Voronoi
// diagram, influence sources and per-cell attributes, and stitches its
// border vertices onto a neighbour's.
package region

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
	"github.com/OCharnyshevich/biomemap/pkg/world/voronoi"
)

var (
	ErrUnknownSide   = errors.New("unknown side")
	ErrInvalidConfig = errors.New("invalid region config")
)

// Config describes how a region is generated.
type Config struct {
	Chunk gen.ChunkPos

	// Size is the side length of the square region in world units.
	Size      float64
	Divisions int
	Layout    gen.Layout

	SiteRelaxation float64
	SiteSkip       float64

	InfluenceDivisions   int
	InfluenceRelaxation  float64
	InfluenceDropoff     float64
	InfluenceMultiplier  float64
	InfluenceMaxChildren int

	WaterLevel        float64
	TemperatureJitter float64
	BorderTolerance   float64
}

// DefaultConfig returns the standard region settings for chunk (0, 0).
func DefaultConfig() Config {
	return Config{
		Size:                 512,
		Divisions:            32,
		Layout:               gen.LayoutEdge,
		SiteRelaxation:       0.75,
		SiteSkip:             0.25,
		InfluenceDivisions:   3,
		InfluenceRelaxation:  0.15,
		InfluenceDropoff:     0.5,
		InfluenceMultiplier:  0.65,
		InfluenceMaxChildren: gen.DefaultMaxChildren,
		WaterLevel:           0.15,
		TemperatureJitter:    0.1,
		BorderTolerance:      1e-6,
	}
}

// Validate reports configuration that cannot produce a region.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0 || math.IsNaN(c.Size) || math.IsInf(c.Size, 0):
		return fmt.Errorf("%w: size %v", ErrInvalidConfig, c.Size)
	case c.Divisions <= 0:
		return fmt.Errorf("%w: divisions %d", ErrInvalidConfig, c.Divisions)
	case c.InfluenceDivisions < 0:
		return fmt.Errorf("%w: influence divisions %d", ErrInvalidConfig, c.InfluenceDivisions)
	case c.BorderTolerance <= 0:
		return fmt.Errorf("%w: border tolerance %v", ErrInvalidConfig, c.BorderTolerance)
	}
	return nil
}

// Origin returns the world position of the region's top-left corner.
func (c Config) Origin() geom.Point {
	return geom.Point{X: float64(c.Chunk.X) * c.Size, Y: float64(c.Chunk.Y) * c.Size}
}

// Attributes are the generated properties of one cell.
type Attributes struct {
	Elevation   float64   `json:"elevation"`
	Moisture    float64   `json:"moisture"`
	Temperature float64   `json:"temperature"`
	Biome       gen.Biome `json:"biome"`
}

// Ocean reports whether the cell is under water.
func (a Attributes) Ocean() bool {
	return a.Biome == gen.Ocean
}

// Region is one generated tile. Attributes[i] belongs to Diagram.Cells[i].
type Region struct {
	Chunk      gen.ChunkPos
	Origin     geom.Point
	Dimensions geom.Point
	Bounds     geom.Rect
	Divisions  int

	Sites      []geom.Point
	Diagram    *voronoi.Diagram
	Influences []gen.Influence
	Attributes []Attributes

	cfg    Config
	fields *Fields
	biomes *gen.BiomeTable
}

// New generates a region from noise.
func New(cfg Config, fields *Fields) (*Region, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sites := gen.NewSiteGenerator(gen.SiteConfig{
		Origin:        cfg.Origin(),
		Dimensions:    geom.Point{X: cfg.Size, Y: cfg.Size},
		Divisions:     cfg.Divisions,
		Relaxation:    cfg.SiteRelaxation,
		SkipThreshold: cfg.SiteSkip,
		Layout:        cfg.Layout,
	}, fields.Perturb, fields.Rarity).Generate()
	return NewFromSites(cfg, fields, sites)
}

// NewFromSites builds a region around a known site list, such as one
// loaded from disk.
func NewFromSites(cfg Config, fields *Fields, sites []geom.Point) (*Region, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	origin := cfg.Origin()
	dims := geom.Point{X: cfg.Size, Y: cfg.Size}
	r := &Region{
		Chunk:      cfg.Chunk,
		Origin:     origin,
		Dimensions: dims,
		Bounds:     geom.RectAt(origin, dims),
		Divisions:  cfg.Divisions,
		Sites:      sites,
		cfg:        cfg,
		fields:     fields,
		biomes:     gen.DefaultBiomeTable(),
	}

	r.Diagram = voronoi.Compute(sites, r.Bounds)
	r.CalculateBorders()
	r.Influences = gen.NewInfluenceMap(gen.InfluenceConfig{
		Bounds:      r.Bounds,
		Divisions:   cfg.InfluenceDivisions,
		Relaxation:  cfg.InfluenceRelaxation,
		Dropoff:     cfg.InfluenceDropoff,
		Multiplier:  cfg.InfluenceMultiplier,
		MaxChildren: cfg.InfluenceMaxChildren,
	}, gen.InfluenceFields{
		Power:   fields.Influence,
		Perturb: fields.Perturb,
		Jitter:  fields.Jitter,
		Rarity:  fields.Rarity,
	}).Generate()
	r.ApplyAttributes()
	return r, nil
}

// Config returns the configuration the region was built with.
func (r *Region) Config() Config {
	return r.cfg
}

var borderSides = [...]geom.Side{geom.SideLeft, geom.SideRight, geom.SideTop, geom.SideBottom}

// CalculateBorders tags vertices, edges and cells lying on the region
// rectangle. An edge is a border edge when both its end points are within
// tolerance of the same side; its cell is tagged when it has only one.
func (r *Region) CalculateBorders() {
	d := r.Diagram
	tol := r.cfg.BorderTolerance

	for i := range d.Cells {
		d.Cells[i].Border = geom.SideNone
	}
	for i := range d.Vertices {
		d.Vertices[i].Border = r.Bounds.Near(d.Vertices[i].Point(), tol)
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		a, b := d.Vertices[e.VA].Point(), d.Vertices[e.VB].Point()

		e.Border = geom.SideNone
		for _, s := range borderSides {
			if r.Bounds.NearSide(a, s, tol) && r.Bounds.NearSide(b, s, tol) {
				e.Border = s
				break
			}
		}
		if e.Border != geom.SideNone && e.RightCell == voronoi.NoCell {
			d.Cells[e.LeftCell].Border = e.Border
		}
	}
}

// EdgeVertices returns the indices of the vertices tagged with side,
// ordered along the border.
func (r *Region) EdgeVertices(side geom.Side) ([]int, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("edge vertices: %w: %v", ErrUnknownSide, side)
	}
	d := r.Diagram
	var out []int
	for i, v := range d.Vertices {
		if v.Border == side {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return along(d.Vertices[out[a]], side) < along(d.Vertices[out[b]], side)
	})
	return out, nil
}

// along returns the coordinate that varies along a border.
func along(v voronoi.Vertex, side geom.Side) float64 {
	if side.Vertical() {
		return v.Y
	}
	return v.X
}

// SmoothVertices moves every vertex on this region's side onto the
// nearest vertex of the neighbour's opposite side. The neighbour is not
// modified. Edges sharing a moved vertex follow it.
func (r *Region) SmoothVertices(side geom.Side, neighbor *Region) error {
	own, err := r.EdgeVertices(side)
	if err != nil {
		return fmt.Errorf("smooth vertices: %w", err)
	}
	theirs, err := neighbor.EdgeVertices(side.Opposite())
	if err != nil {
		return fmt.Errorf("smooth vertices: %w", err)
	}
	if len(theirs) == 0 {
		return nil
	}

	nd := neighbor.Diagram
	for _, vi := range own {
		v := &r.Diagram.Vertices[vi]
		pos := along(*v, side)

		best := nd.Vertices[theirs[0]]
		bestDist := math.Abs(along(best, side) - pos)
		for _, ti := range theirs[1:] {
			cand := nd.Vertices[ti]
			if d := math.Abs(along(cand, side) - pos); d < bestDist {
				best, bestDist = cand, d
			}
		}
		v.X, v.Y = best.X, best.Y
	}
	return nil
}

// ApplyAttributes assigns elevation, moisture, temperature and biome to
// every cell from its site.
func (r *Region) ApplyAttributes() {
	cells := r.Diagram.Cells
	r.Attributes = make([]Attributes, len(cells))
	for i, c := range cells {
		if c.Degenerate {
			r.Attributes[i] = Attributes{Biome: gen.Ocean}
			continue
		}
		r.Attributes[i] = r.attributesAt(c.Site)
	}
}

func (r *Region) attributesAt(p geom.Point) Attributes {
	f := r.fields
	elevation := f.Height.GetEased(p.X, p.Y)
	if len(r.Influences) > 0 {
		local := geom.Point{
			X: (p.X - r.Bounds.X0) / r.Bounds.Width(),
			Y: (p.Y - r.Bounds.Y0) / r.Bounds.Height(),
		}
		elevation *= gen.Strength(r.Influences, local)
	}
	elevation = geom.Clamp(elevation, 0, 1)

	moisture := geom.Clamp(f.Moisture.Get(p.X, p.Y), 0, 1)
	temperature := geom.Clamp((1-elevation)*(1+f.Temperature.Get(p.X, p.Y)*r.cfg.TemperatureJitter), 0, 1)

	return Attributes{
		Elevation:   elevation,
		Moisture:    moisture,
		Temperature: temperature,
		Biome:       r.biomes.Classify(elevation < r.cfg.WaterLevel, moisture, temperature),
	}
}

// CellAt returns the index of the cell containing world point p.
func (r *Region) CellAt(p geom.Point) (int, bool) {
	if !r.Bounds.Contains(p) {
		return 0, false
	}
	return r.Diagram.Find(p)
}

// Cell returns the geometry and attributes of cell i.
func (r *Region) Cell(i int) (voronoi.Cell, Attributes) {
	return r.Diagram.Cells[i], r.Attributes[i]
}

// BiomeCounts tallies the biomes of the region's live cells.
func (r *Region) BiomeCounts() map[gen.Biome]int {
	out := make(map[gen.Biome]int)
	for i, c := range r.Diagram.Cells {
		if c.Degenerate {
			continue
		}
		out[r.Attributes[i].Biome]++
	}
	return out
}
