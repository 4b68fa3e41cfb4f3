package gen

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
	"github.com/OCharnyshevich/biomemap/pkg/world/noise"
)

func testInfluenceFields(seed int64) InfluenceFields {
	unit := func(salt string, freq float64) *noise.Field {
		return noise.New(noise.Config{
			Seed: noise.Derive(seed, salt), Octaves: 4, Persistence: 0.5,
			Frequency: freq, Amplitude: 1, Min: 0, Max: 1,
		})
	}
	return InfluenceFields{
		Power:   unit("influence", 1.0/256),
		Perturb: noise.New(noise.Config{Seed: noise.Derive(seed, "perturb"), Octaves: 2, Frequency: 1.0 / 16, Min: -1, Max: 1}),
		Jitter:  unit("jitter", 1.0/4),
		Rarity:  unit("rarity", 1.0/16),
	}
}

func influenceConfig() InfluenceConfig {
	return InfluenceConfig{
		Bounds:      geom.Rect{X0: 0, Y0: 0, X1: 512, Y1: 512},
		Divisions:   3,
		Relaxation:  0.15,
		Dropoff:     0.5,
		Multiplier:  0.65,
		MaxChildren: DefaultMaxChildren,
	}
}

func TestInfluenceDeterministic(t *testing.T) {
	a := NewInfluenceMap(influenceConfig(), testInfluenceFields(1)).Generate()
	b := NewInfluenceMap(influenceConfig(), testInfluenceFields(1)).Generate()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("influences differ (-first +second):\n%s", diff)
	}
}

func TestInfluenceCornersExact(t *testing.T) {
	infl := NewInfluenceMap(influenceConfig(), testInfluenceFields(2)).Generate()

	want := map[geom.Point]bool{{X: 0, Y: 0}: false, {X: 1, Y: 0}: false, {X: 0, Y: 1}: false, {X: 1, Y: 1}: false}
	for _, in := range infl {
		if _, ok := want[in.Origin]; ok {
			want[in.Origin] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("no corner influence at %v", p)
		}
	}
}

func TestInfluenceInvariants(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		cfg := influenceConfig()
		cfg.Dropoff = 0.2
		infl := NewInfluenceMap(cfg, testInfluenceFields(seed)).Generate()

		var master *Influence
		children := 0
		for i := range infl {
			in := infl[i]
			if in.Origin.X < 0 || in.Origin.X > 1 || in.Origin.Y < 0 || in.Origin.Y > 1 {
				t.Fatalf("seed %d: origin %v outside unit square", seed, in.Origin)
			}
			if in.Power < 0 || in.Power > 1 {
				t.Fatalf("seed %d: power %f outside [0,1]", seed, in.Power)
			}
			if in.Parent == nil {
				master = &infl[i]
				children = 0
				continue
			}

			children++
			if master == nil || *in.Parent != master.Origin {
				t.Fatalf("seed %d: child %d does not follow its master", seed, i)
			}
			if children > DefaultMaxChildren {
				t.Fatalf("seed %d: master has %d children, want <= %d", seed, children, DefaultMaxChildren)
			}
			if in.Power > master.Power {
				t.Fatalf("seed %d: child power %f exceeds parent %f", seed, in.Power, master.Power)
			}
			if math.Abs(in.Power-master.Power*0.7) > master.Power*0.1+1e-12 {
				t.Fatalf("seed %d: child power %f outside parent*[0.6,0.8]", seed, in.Power)
			}
		}
	}
}

func TestInfluenceDropoff(t *testing.T) {
	cfg := influenceConfig()
	cfg.Dropoff = 1.1
	infl := NewInfluenceMap(cfg, testInfluenceFields(4)).Generate()

	if got, want := len(infl), 16; got != want {
		t.Fatalf("len(influences) = %d, want %d (no children when power is zero)", got, want)
	}
	for _, in := range infl {
		if in.Power != 0 {
			t.Fatalf("influence at %v has power %f, want 0", in.Origin, in.Power)
		}
	}
}

func TestInfluenceMultiplier(t *testing.T) {
	cfg := influenceConfig()
	cfg.Dropoff = 0
	cfg.Multiplier = 0.25
	for _, in := range NewInfluenceMap(cfg, testInfluenceFields(5)).Generate() {
		if in.Power > 0.25 {
			t.Fatalf("power %f exceeds multiplier 0.25", in.Power)
		}
	}
}

func TestInfluenceSharedBorder(t *testing.T) {
	fields := testInfluenceFields(6)
	a := influenceConfig()
	b := influenceConfig()
	b.Bounds = geom.Rect{X0: 512, Y0: 0, X1: 1024, Y1: 512}

	onRight := func(in Influence) bool { return in.Origin.X == 1 && in.Parent == nil }
	onLeft := func(in Influence) bool { return in.Origin.X == 0 && in.Parent == nil }

	var right, left []Influence
	for _, in := range NewInfluenceMap(a, fields).Generate() {
		if onRight(in) {
			right = append(right, in)
		}
	}
	for _, in := range NewInfluenceMap(b, fields).Generate() {
		if onLeft(in) {
			left = append(left, in)
		}
	}

	if len(right) != len(left) {
		t.Fatalf("border influences: %d on the right, %d on the left", len(right), len(left))
	}
	for i := range right {
		if right[i].Origin.Y != left[i].Origin.Y || right[i].Power != left[i].Power {
			t.Errorf("border influence %d: right %+v, left %+v", i, right[i], left[i])
		}
	}
}

func TestStrength(t *testing.T) {
	single := []Influence{{Origin: geom.Point{X: 0.5, Y: 0.5}, Power: 0.5}}
	tests := []struct {
		name string
		in   []Influence
		p    geom.Point
		want float64
	}{
		{"centre", single, geom.Point{X: 0.5, Y: 0.5}, 1},
		{"half", single, geom.Point{X: 0.75, Y: 0.5}, 0.5},
		{"edge", single, geom.Point{X: 1, Y: 0.5}, 0},
		{"outside", single, geom.Point{X: 0, Y: 0}, 0},
		{"none", nil, geom.Point{X: 0.5, Y: 0.5}, 0},
		{"zero power", []Influence{{Origin: geom.Point{X: 0.5, Y: 0.5}}}, geom.Point{X: 0.5, Y: 0.5}, 0},
		{"clamped", append(single, single...), geom.Point{X: 0.5, Y: 0.5}, 1},
	}
	for _, tt := range tests {
		if got := Strength(tt.in, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: Strength = %f, want %f", tt.name, got, tt.want)
		}
	}
}
