package region

import "github.com/OCharnyshevich/biomemap/pkg/world/noise"

// Field names, also used as config keys and seed salts.
const (
	FieldHeight      = "height"
	FieldMoisture    = "moisture"
	FieldTemperature = "temperature"
	FieldInfluence   = "influence"
	FieldJitter      = "jitter"
	FieldPerturb     = "perturb"
	FieldRarity      = "rarity"
)

// FieldNames lists every noise field a region samples.
var FieldNames = []string{
	FieldHeight, FieldMoisture, FieldTemperature, FieldInfluence,
	FieldJitter, FieldPerturb, FieldRarity,
}

// FieldOptions overrides the shape of one field. Zero values keep the
// default.
type FieldOptions struct {
	Basis       noise.Basis
	Octaves     int
	Persistence float64
	Frequency   float64
	Amplitude   float64
	Ease        *noise.CubicBezier
}

// Fields are the noise inputs shared by every region of a world.
type Fields struct {
	Height      *noise.Field // [0,1]
	Moisture    *noise.Field // [0,1]
	Temperature *noise.Field // [-1,1], multiplicative jitter
	Influence   *noise.Field // [0,1], influence power
	Jitter      *noise.Field // [0,1]
	Perturb     *noise.Field // [-1,1], site and influence offsets
	Rarity      *noise.Field // [0,1], site skipping and child counts
}

var defaultFields = map[string]noise.Config{
	FieldHeight:      {Octaves: 4, Persistence: 1.0 / 8, Frequency: 1.0 / 1024, Amplitude: 1, Min: 0, Max: 1, Ease: &noise.EaseHeight},
	FieldMoisture:    {Octaves: 4, Persistence: 0.5, Frequency: 1.0 / 512, Amplitude: 1, Min: 0, Max: 1},
	FieldTemperature: {Octaves: 2, Persistence: 0.5, Frequency: 1.0 / 256, Amplitude: 1, Min: -1, Max: 1},
	FieldInfluence:   {Octaves: 4, Persistence: 0.5, Frequency: 1.0 / 256, Amplitude: 1, Min: 0, Max: 1},
	FieldJitter:      {Octaves: 4, Persistence: 1.0 / 4, Frequency: 1.0 / 4, Amplitude: 1, Min: 0, Max: 1},
	FieldPerturb:     {Octaves: 8, Persistence: 0.4, Frequency: 0.075, Amplitude: 0.05, Min: -1, Max: 1},
	FieldRarity:      {Octaves: 4, Persistence: 0.05, Frequency: 0.05, Amplitude: 1, Min: 0, Max: 1},
}

// DefaultFieldConfig returns the built-in shape of a named field with its
// sub-seed derived from seed.
func DefaultFieldConfig(seed int64, name string) noise.Config {
	cfg := defaultFields[name]
	cfg.Seed = noise.Derive(seed, name)
	return cfg
}

// NewFields builds every field from one world seed, each with its own
// sub-seed, applying any overrides keyed by field name.
func NewFields(seed int64, overrides map[string]FieldOptions) *Fields {
	build := func(name string) *noise.Field {
		cfg := DefaultFieldConfig(seed, name)
		if o, ok := overrides[name]; ok {
			if o.Basis != "" {
				cfg.Basis = o.Basis
			}
			if o.Octaves > 0 {
				cfg.Octaves = o.Octaves
			}
			if o.Persistence > 0 {
				cfg.Persistence = o.Persistence
			}
			if o.Frequency > 0 {
				cfg.Frequency = o.Frequency
			}
			if o.Amplitude > 0 {
				cfg.Amplitude = o.Amplitude
			}
			if o.Ease != nil {
				cfg.Ease = o.Ease
			}
		}
		return noise.New(cfg)
	}
	return &Fields{
		Height:      build(FieldHeight),
		Moisture:    build(FieldMoisture),
		Temperature: build(FieldTemperature),
		Influence:   build(FieldInfluence),
		Jitter:      build(FieldJitter),
		Perturb:     build(FieldPerturb),
		Rarity:      build(FieldRarity),
	}
}
