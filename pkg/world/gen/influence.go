package gen

import (
	"math"

	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
	"github.com/OCharnyshevich/biomemap/pkg/world/noise"
)

// DefaultMaxChildren is the number of satellite influences an interior
// master may spawn.
const DefaultMaxChildren = 3

// Influence is a radial source of elevation in region-local [0,1]^2
// coordinates.
type Influence struct {
	Origin geom.Point `json:"origin"`
	Power  float64    `json:"power"`

	// Parent is the master origin a child was spawned from. Diagnostic only.
	Parent *geom.Point `json:"parent,omitempty"`
}

// InfluenceConfig describes the influence lattice of one region.
type InfluenceConfig struct {
	// Bounds is the region rectangle in world units; noise is sampled there.
	Bounds    geom.Rect
	Divisions int

	// Relaxation is the largest origin offset, in local units.
	Relaxation float64

	// Dropoff zeroes any power below it; Multiplier scales what survives.
	Dropoff    float64
	Multiplier float64

	MaxChildren int
}

// InfluenceFields are the noise inputs of an InfluenceMap.
type InfluenceFields struct {
	Power   *noise.Field // [0,1]
	Perturb *noise.Field // [-1,1]
	Jitter  *noise.Field // [0,1]
	Rarity  *noise.Field // [0,1]
}

// InfluenceMap lays influence sources over a region.
type InfluenceMap struct {
	cfg    InfluenceConfig
	fields InfluenceFields
}

// NewInfluenceMap creates an InfluenceMap.
func NewInfluenceMap(cfg InfluenceConfig, fields InfluenceFields) *InfluenceMap {
	if cfg.MaxChildren < 0 {
		cfg.MaxChildren = 0
	}
	return &InfluenceMap{cfg: cfg, fields: fields}
}

// Generate returns the influences in lattice order, each interior master
// directly followed by its children.
func (m *InfluenceMap) Generate() []Influence {
	n := m.cfg.Divisions
	if n <= 0 {
		return nil
	}
	b := m.cfg.Bounds
	step := 1 / float64(n)
	margin := step / 2

	var out []Influence
	for j := 0; j <= n; j++ {
		v := lattice(0, 1, j, n)
		onY := j == 0 || j == n
		for i := 0; i <= n; i++ {
			u := lattice(0, 1, i, n)
			onX := i == 0 || i == n
			d := geom.Point{X: b.X0 + u*b.Width(), Y: b.Y0 + v*b.Height()}
			power := m.power(d)

			switch {
			case onX && onY:
				out = append(out, Influence{Origin: geom.Point{X: u, Y: v}, Power: power})
			case onY:
				x := u + m.fields.Perturb.Get(d.X, d.Y)*m.cfg.Relaxation
				out = append(out, Influence{Origin: geom.Point{X: geom.Clamp(x, 0, 1), Y: v}, Power: power})
			case onX:
				y := v + m.fields.Perturb.Get(d.X, d.Y)*m.cfg.Relaxation
				out = append(out, Influence{Origin: geom.Point{X: u, Y: geom.Clamp(y, 0, 1)}, Power: power})
			default:
				master := Influence{
					Origin: geom.Point{
						X: geom.Clamp(u+m.fields.Perturb.Get(d.X, d.Y)*m.cfg.Relaxation, 0, 1),
						Y: geom.Clamp(v+m.fields.Perturb.Get(-d.X, -d.Y)*m.cfg.Relaxation, 0, 1),
					},
					Power: power / 2,
				}
				out = append(out, master)
				out = append(out, m.children(master, d, margin)...)
			}
		}
	}
	return out
}

func (m *InfluenceMap) power(d geom.Point) float64 {
	p := geom.Clamp(m.fields.Power.Get(d.X, d.Y), 0, 1)
	if p < m.cfg.Dropoff {
		return 0
	}
	return p * m.cfg.Multiplier
}

// childCount eases the rarity sample so most masters have no children.
func (m *InfluenceMap) childCount(d geom.Point) int {
	r := geom.Clamp(m.fields.Rarity.Get(d.X, d.Y), 0, 1)
	c := int(noise.EaseIn.At(r) * float64(m.cfg.MaxChildren+1))
	return min(c, m.cfg.MaxChildren)
}

func (m *InfluenceMap) children(master Influence, d geom.Point, margin float64) []Influence {
	if master.Power <= 0 {
		return nil
	}
	count := m.childCount(d)
	if count == 0 {
		return nil
	}

	parent := master.Origin
	kids := make([]Influence, 0, count)
	for k := range count {
		// Offset the sample point per child so siblings differ.
		dk := geom.Point{
			X: d.X + float64(k+1)*m.cfg.Bounds.Width()*0.37,
			Y: d.Y + float64(k+1)*m.cfg.Bounds.Height()*0.61,
		}
		r := geom.Clamp(m.fields.Jitter.Get(dk.X, dk.Y), 0, 1)
		radius := master.Power * (0.5 + r*0.75)
		angle := geom.Clamp(m.fields.Rarity.Get(-dk.X, -dk.Y), 0, 1) * 2 * math.Pi
		jitter := geom.Clamp(m.fields.Jitter.Get(-dk.X, -dk.Y), 0, 1)

		kids = append(kids, Influence{
			Origin: geom.Point{
				X: geom.Clamp(parent.X+math.Cos(angle)*radius, margin, 1-margin),
				Y: geom.Clamp(parent.Y+math.Sin(angle)*radius, margin, 1-margin),
			},
			Power:  master.Power * (0.6 + jitter*0.2),
			Parent: &parent,
		})
	}
	return kids
}

// Strength returns the clamped sum of the linear falloff of every influence
// at local point p. Zero-power influences contribute nothing.
func Strength(influences []Influence, p geom.Point) float64 {
	var sum float64
	for _, in := range influences {
		if in.Power <= 0 {
			continue
		}
		sum += max(0, 1-p.Dist(in.Origin)/in.Power)
	}
	return geom.Clamp(sum, 0, 1)
}
