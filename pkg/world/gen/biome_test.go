package gen

import "testing"

func TestBiomeTableGet(t *testing.T) {
	table := DefaultBiomeTable()
	tests := []struct {
		moisture, temp float64
		want           Biome
	}{
		{0, 0, Snow},
		{0.99, 0, Scorched},
		{1, 0, Scorched},
		{0.6, 0.1, Tundra},
		{0, 1, TropicalRainforest},
		{1, 1, Desert},
		{0.5, 0.5, Grassland},
		{0.2, 0.3, Taiga},
		{0.2, 0.6, TemperateForest},
		{0.4, 0.9, TropicalForest},
		{0.7, 0.9, Plains},
		{0.9, 0.4, TemperateDesert},
		{0.9, 0.6, TemperateDesert},
		{-0.5, 2, TropicalRainforest},
	}
	for _, tt := range tests {
		if got := table.Get(tt.moisture, tt.temp); got != tt.want {
			t.Errorf("Get(%v, %v) = %s, want %s", tt.moisture, tt.temp, got, tt.want)
		}
	}
}

func TestBiomeTableTotal(t *testing.T) {
	table := DefaultBiomeTable()
	for i := 0; i <= 100; i++ {
		for j := 0; j <= 100; j++ {
			m, tp := float64(i)/100, float64(j)/100
			b := table.Get(m, tp)
			if b == Ocean {
				t.Fatalf("Get(%v, %v) = OCEAN, ocean is only an override", m, tp)
			}
			if int(b) >= len(biomeNames) {
				t.Fatalf("Get(%v, %v) = %d, not a biome", m, tp, b)
			}
		}
	}
}

func TestBiomeClassifyOcean(t *testing.T) {
	table := DefaultBiomeTable()
	if got := table.Classify(true, 0.5, 0.5); got != Ocean {
		t.Errorf("Classify(ocean) = %s, want OCEAN", got)
	}
	if got := table.Classify(false, 0.5, 0.5); got != Grassland {
		t.Errorf("Classify(land) = %s, want GRASSLAND", got)
	}
}

func TestParseBiome(t *testing.T) {
	for _, b := range Biomes() {
		got, err := ParseBiome(b.String())
		if err != nil || got != b {
			t.Errorf("ParseBiome(%q) = %v, %v", b.String(), got, err)
		}
	}
	if got, err := ParseBiome("temperate_forest"); err != nil || got != TemperateForest {
		t.Errorf("ParseBiome(temperate_forest) = %v, %v", got, err)
	}
	if _, err := ParseBiome("LAVA"); err == nil {
		t.Error("ParseBiome(LAVA) should fail")
	}
}

func TestBiomeTableMoistureColumns(t *testing.T) {
	table := DefaultBiomeTable()
	// Low moisture values index the rainforest side of every row.
	for _, tt := range []struct {
		temp      float64
		low, high Biome
	}{
		{0.9, TropicalRainforest, Desert},
		{0.6, TemperateRainforest, TemperateDesert},
		{0.3, Taiga, TemperateDesert},
	} {
		if got := table.Get(0.05, tt.temp); got != tt.low {
			t.Errorf("Get(0.05, %v) = %s, want %s", tt.temp, got, tt.low)
		}
		if got := table.Get(0.95, tt.temp); got != tt.high {
			t.Errorf("Get(0.95, %v) = %s, want %s", tt.temp, got, tt.high)
		}
	}
}
