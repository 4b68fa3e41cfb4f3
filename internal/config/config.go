// Package config loads and validates the generator settings used by the
// command line tools.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/biomemap/pkg/world"
	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/noise"
	"github.com/OCharnyshevich/biomemap/pkg/world/region"
)

//go:embed config.schema.json
var schemaJSON string

var ErrInvalid = errors.New("invalid config")

// Seed is a world seed written either as a number or as a string.
type Seed string

// Int64 converts the seed to the numeric form noise fields use.
func (s Seed) Int64() int64 {
	return noise.ParseSeed(string(s))
}

func (s *Seed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Seed(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	*s = Seed(n.String())
	return nil
}

func (s *Seed) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("seed: line %d: want a scalar", node.Line)
	}
	*s = Seed(node.Value)
	return nil
}

// NoiseOptions overrides the shape of one noise field.
type NoiseOptions struct {
	Octaves     int     `yaml:"octaves,omitempty" json:"octaves,omitempty"`
	Persistence float64 `yaml:"persistence,omitempty" json:"persistence,omitempty"`
	Frequency   float64 `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	Amplitude   float64 `yaml:"amplitude,omitempty" json:"amplitude,omitempty"`
	Basis       string  `yaml:"basis,omitempty" json:"basis,omitempty"`
}

// Config holds the generator configuration.
type Config struct {
	Seed        Seed    `yaml:"seed" json:"seed"`
	RegionSize  float64 `yaml:"region_size" json:"region_size"`
	WorldWidth  int     `yaml:"world_width" json:"world_width"`   // chunks
	WorldHeight int     `yaml:"world_height" json:"world_height"` // chunks

	Divisions      int     `yaml:"divisions" json:"divisions"`
	SiteRelaxation float64 `yaml:"site_relaxation" json:"site_relaxation"`
	SiteSkip       float64 `yaml:"site_skip" json:"site_skip"`
	SiteLayout     string  `yaml:"site_layout" json:"site_layout"` // "edge" or "seed"

	InfluenceDivisions   int     `yaml:"influence_divisions" json:"influence_divisions"`
	InfluenceRelaxation  float64 `yaml:"influence_relaxation" json:"influence_relaxation"`
	InfluenceDropoff     float64 `yaml:"influence_dropoff" json:"influence_dropoff"`
	InfluenceMultiplier  float64 `yaml:"influence_multiplier" json:"influence_multiplier"`
	InfluenceMaxChildren int     `yaml:"influence_max_children" json:"influence_max_children"`

	WaterLevel        float64 `yaml:"water_level" json:"water_level"`
	TemperatureJitter float64 `yaml:"temperature_jitter" json:"temperature_jitter"`
	BorderTolerance   float64 `yaml:"border_tolerance" json:"border_tolerance"`

	Stitch  bool `yaml:"stitch" json:"stitch"`
	Workers int  `yaml:"workers" json:"workers"` // 0 = GOMAXPROCS

	// Noise maps a field name (height, moisture, ...) to its overrides.
	Noise map[string]NoiseOptions `yaml:"noise,omitempty" json:"noise,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	rc := region.DefaultConfig()
	return &Config{
		Seed:                 "0",
		RegionSize:           rc.Size,
		WorldWidth:           1,
		WorldHeight:          1,
		Divisions:            rc.Divisions,
		SiteRelaxation:       rc.SiteRelaxation,
		SiteSkip:             rc.SiteSkip,
		SiteLayout:           string(rc.Layout),
		InfluenceDivisions:   rc.InfluenceDivisions,
		InfluenceRelaxation:  rc.InfluenceRelaxation,
		InfluenceDropoff:     rc.InfluenceDropoff,
		InfluenceMultiplier:  rc.InfluenceMultiplier,
		InfluenceMaxChildren: rc.InfluenceMaxChildren,
		WaterLevel:           rc.WaterLevel,
		TemperatureJitter:    rc.TemperatureJitter,
		BorderTolerance:      rc.BorderTolerance,
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["size"] {
		cfg.RegionSize = fromFile.RegionSize
	}
	if !explicitFlags["width"] {
		cfg.WorldWidth = fromFile.WorldWidth
	}
	if !explicitFlags["height"] {
		cfg.WorldHeight = fromFile.WorldHeight
	}
	if !explicitFlags["divisions"] {
		cfg.Divisions = fromFile.Divisions
	}
	if !explicitFlags["layout"] {
		cfg.SiteLayout = fromFile.SiteLayout
	}
	if !explicitFlags["water-level"] {
		cfg.WaterLevel = fromFile.WaterLevel
	}
	if !explicitFlags["stitch"] {
		cfg.Stitch = fromFile.Stitch
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}

	// No flags for these.
	cfg.SiteRelaxation = fromFile.SiteRelaxation
	cfg.SiteSkip = fromFile.SiteSkip
	cfg.InfluenceDivisions = fromFile.InfluenceDivisions
	cfg.InfluenceRelaxation = fromFile.InfluenceRelaxation
	cfg.InfluenceDropoff = fromFile.InfluenceDropoff
	cfg.InfluenceMultiplier = fromFile.InfluenceMultiplier
	cfg.InfluenceMaxChildren = fromFile.InfluenceMaxChildren
	cfg.TemperatureJitter = fromFile.TemperatureJitter
	cfg.BorderTolerance = fromFile.BorderTolerance
	cfg.Noise = fromFile.Noise
}

// Load reads a YAML or JSON config file, chosen by extension. Keys the
// file leaves out keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a config document. ext is ".json", ".yaml"
// or ".yml"; anything else is read as YAML.
func Parse(b []byte, ext string) (*Config, error) {
	isJSON := strings.EqualFold(ext, ".json")

	raw := b
	if !isJSON {
		// Normalise to JSON before schema validation.
		var doc any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		var err error
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	doc, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if isJSON {
		err = json.Unmarshal(b, cfg)
	} else {
		err = yaml.Unmarshal(b, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return doc, nil
}

func validateSchema(doc any) error {
	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate checks the values the schema cannot express.
func (c *Config) Validate() error {
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return fmt.Errorf("%w: world size %dx%d", ErrInvalid, c.WorldWidth, c.WorldHeight)
	}
	if _, err := gen.ParseLayout(c.SiteLayout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for name, o := range c.Noise {
		if !slices.Contains(region.FieldNames, name) {
			return fmt.Errorf("%w: unknown noise field %q", ErrInvalid, name)
		}
		if _, err := noise.ParseBasis(o.Basis); err != nil {
			return fmt.Errorf("%w: noise.%s: %v", ErrInvalid, name, err)
		}
	}
	if err := c.regionConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Config) regionConfig() region.Config {
	layout, _ := gen.ParseLayout(c.SiteLayout)
	return region.Config{
		Size:                 c.RegionSize,
		Divisions:            c.Divisions,
		Layout:               layout,
		SiteRelaxation:       c.SiteRelaxation,
		SiteSkip:             c.SiteSkip,
		InfluenceDivisions:   c.InfluenceDivisions,
		InfluenceRelaxation:  c.InfluenceRelaxation,
		InfluenceDropoff:     c.InfluenceDropoff,
		InfluenceMultiplier:  c.InfluenceMultiplier,
		InfluenceMaxChildren: c.InfluenceMaxChildren,
		WaterLevel:           c.WaterLevel,
		TemperatureJitter:    c.TemperatureJitter,
		BorderTolerance:      c.BorderTolerance,
	}
}

// WorldConfig converts the file settings into the generator's config.
// Call Validate first.
func (c *Config) WorldConfig() world.Config {
	var fields map[string]region.FieldOptions
	if len(c.Noise) > 0 {
		fields = make(map[string]region.FieldOptions, len(c.Noise))
		for name, o := range c.Noise {
			fields[name] = region.FieldOptions{
				Basis:       noise.Basis(o.Basis),
				Octaves:     o.Octaves,
				Persistence: o.Persistence,
				Frequency:   o.Frequency,
				Amplitude:   o.Amplitude,
			}
		}
	}
	return world.Config{
		Seed:    c.Seed.Int64(),
		Width:   c.WorldWidth,
		Height:  c.WorldHeight,
		Region:  c.regionConfig(),
		Fields:  fields,
		Stitch:  c.Stitch,
		Workers: c.Workers,
	}
}
