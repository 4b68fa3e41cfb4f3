package gen

import (
	"fmt"
	"math"
	"strings"
)

// Biome classifies a cell.
type Biome uint8

const (
	Ocean Biome = iota
	Snow
	Tundra
	Scorched
	Taiga
	Shrubland
	TemperateDesert
	TemperateRainforest
	TemperateForest
	Grassland
	TropicalRainforest
	TropicalForest
	Plains
	Desert
)

var biomeNames = [...]string{
	Ocean:               "OCEAN",
	Snow:                "SNOW",
	Tundra:              "TUNDRA",
	Scorched:            "SCORCHED",
	Taiga:               "TAIGA",
	Shrubland:           "SHRUBLAND",
	TemperateDesert:     "TEMPERATE_DESERT",
	TemperateRainforest: "TEMPERATE_RAINFOREST",
	TemperateForest:     "TEMPERATE_FOREST",
	Grassland:           "GRASSLAND",
	TropicalRainforest:  "TROPICAL_RAINFOREST",
	TropicalForest:      "TROPICAL_FOREST",
	Plains:              "PLAINS",
	Desert:              "DESERT",
}

// Biomes lists every biome in declaration order.
func Biomes() []Biome {
	out := make([]Biome, len(biomeNames))
	for i := range out {
		out[i] = Biome(i)
	}
	return out
}

func (b Biome) String() string {
	if int(b) < len(biomeNames) {
		return biomeNames[b]
	}
	return fmt.Sprintf("BIOME(%d)", uint8(b))
}

// ParseBiome is the inverse of String, case-insensitive.
func ParseBiome(s string) (Biome, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range biomeNames {
		if name == s {
			return Biome(i), nil
		}
	}
	return 0, fmt.Errorf("unknown biome %q", s)
}

func (b Biome) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Biome) UnmarshalText(text []byte) error {
	v, err := ParseBiome(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

const (
	MoistureBuckets    = 6
	TemperatureBuckets = 4
)

// BiomeTable maps bucketed moisture and temperature to a biome.
type BiomeTable struct {
	cells [TemperatureBuckets][MoistureBuckets]Biome
}

// DefaultBiomeTable returns the standard distribution. The column is
// floor(moisture*6), so low moisture values select column 0 (the
// rainforest side) and values near 1 select column 5 (the desert side).
// The row is floor(temperature*4).
//
//	Temp | 0                    1                    2                3                4                 5
//	0    | SNOW                 SNOW                 SNOW             TUNDRA           TUNDRA            SCORCHED
//	1    | TAIGA                TAIGA                SHRUBLAND        SHRUBLAND        TEMPERATE_DESERT  TEMPERATE_DESERT
//	2    | TEMPERATE_RAINFOREST TEMPERATE_FOREST     TEMPERATE_FOREST GRASSLAND        GRASSLAND         TEMPERATE_DESERT
//	3    | TROPICAL_RAINFOREST  TROPICAL_RAINFOREST  TROPICAL_FOREST  TROPICAL_FOREST  PLAINS            DESERT
func DefaultBiomeTable() *BiomeTable {
	return &BiomeTable{cells: [TemperatureBuckets][MoistureBuckets]Biome{
		{Snow, Snow, Snow, Tundra, Tundra, Scorched},
		{Taiga, Taiga, Shrubland, Shrubland, TemperateDesert, TemperateDesert},
		{TemperateRainforest, TemperateForest, TemperateForest, Grassland, Grassland, TemperateDesert},
		{TropicalRainforest, TropicalRainforest, TropicalForest, TropicalForest, Plains, Desert},
	}}
}

// Get classifies a cell from moisture and temperature in [0, 1]. The value
// 1.0 falls into the last bucket; anything outside [0, 1] is clamped.
func (t *BiomeTable) Get(moisture, temperature float64) Biome {
	return t.cells[bucket(temperature, TemperatureBuckets)][bucket(moisture, MoistureBuckets)]
}

// Classify is Get with the ocean override applied first.
func (t *BiomeTable) Classify(ocean bool, moisture, temperature float64) Biome {
	if ocean {
		return Ocean
	}
	return t.Get(moisture, temperature)
}

func bucket(v float64, n int) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	i := int(math.Floor(v * float64(n)))
	if i >= n {
		return n - 1
	}
	return i
}
