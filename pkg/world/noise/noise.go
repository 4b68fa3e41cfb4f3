// Package noise provides seeded, layered 2D noise fields.
//
// A Field is a pure function of its configuration and the sample
// coordinates: the same seed and options always produce the same value,
// and a Field is safe for concurrent use once constructed.
package noise

import (
	"fmt"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Basis selects the single-octave noise function a Field layers.
type Basis string

const (
	BasisSimplex Basis = "simplex" // OpenSimplex, the default
	BasisPerlin  Basis = "perlin"
	BasisClassic Basis = "classic" // permutation-table simplex
)

// ParseBasis converts a config string to a Basis. Empty selects simplex.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case "", BasisSimplex:
		return BasisSimplex, nil
	case BasisPerlin, BasisClassic:
		return Basis(s), nil
	}
	return "", fmt.Errorf("unknown noise basis %q", s)
}

// Sampler is a single octave of noise returning values in roughly [-1, 1].
type Sampler interface {
	Eval2(x, y float64) float64
}

// Config describes one noise field.
type Config struct {
	Seed        int64
	Basis       Basis
	Octaves     int
	Persistence float64
	Frequency   float64
	Amplitude   float64
	Min, Max    float64

	// Ease is applied by GetEased. Nil means linear.
	Ease *CubicBezier
}

// term is one octave: a weight and the frequency it samples at.
type term struct {
	weight, freq float64
}

// Field is a layered noise function over the plane.
type Field struct {
	cfg   Config
	src   Sampler
	terms []term
	total float64
}

// New builds a Field. Zero octaves, amplitude or frequency fall back to 1
// and an empty range falls back to [0, 1].
func New(cfg Config) *Field {
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}
	if cfg.Amplitude <= 0 {
		cfg.Amplitude = 1
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = 1
	}
	if cfg.Min == 0 && cfg.Max == 0 {
		cfg.Max = 1
	}

	f := &Field{cfg: cfg, src: newSampler(cfg.Basis, cfg.Seed)}

	weight, freq := cfg.Amplitude, cfg.Frequency
	for range cfg.Octaves {
		f.terms = append(f.terms, term{weight: weight, freq: freq})
		f.total += weight
		weight *= cfg.Persistence
		freq *= 2
	}
	return f
}

func newSampler(b Basis, seed int64) Sampler {
	switch b {
	case BasisPerlin:
		return perlinSampler{perlin.NewPerlin(2, 2, 1, seed)}
	case BasisClassic:
		return NewPermutation(seed)
	default:
		return opensimplex.New(seed)
	}
}

type perlinSampler struct {
	p *perlin.Perlin
}

func (s perlinSampler) Eval2(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

// Config returns the configuration the field was built with, defaults applied.
func (f *Field) Config() Config {
	return f.cfg
}

// Raw returns the normalized octave sum in [-1, 1].
func (f *Field) Raw(x, y float64) float64 {
	var sum float64
	for _, t := range f.terms {
		sum += t.weight * f.src.Eval2(x*t.freq, y*t.freq)
	}
	v := sum / f.total
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// Get samples the field at (x, y), returning a value in [Min, Max].
func (f *Field) Get(x, y float64) float64 {
	return f.scale(f.Raw(x, y))
}

// GetEased samples the field and shapes the result with the configured
// easing curve, keeping it in [Min, Max].
func (f *Field) GetEased(x, y float64) float64 {
	if f.cfg.Ease == nil {
		return f.Get(x, y)
	}
	n := (f.Raw(x, y) + 1) / 2
	return f.cfg.Min + f.cfg.Ease.At(n)*(f.cfg.Max-f.cfg.Min)
}

func (f *Field) scale(v float64) float64 {
	return f.cfg.Min + (v+1)/2*(f.cfg.Max-f.cfg.Min)
}
