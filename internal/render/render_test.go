package render

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/OCharnyshevich/biomemap/pkg/world"
	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/region"
)

// halfWorld is a 2x1 world with only the left region generated.
func halfWorld(t *testing.T) *world.World {
	t.Helper()
	rc := region.DefaultConfig()
	rc.Size = 128
	rc.Divisions = 8
	w, err := world.New(world.Config{Seed: 3, Width: 2, Height: 1, Region: rc},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if _, err := w.Generate(0, 0); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return w
}

func TestRasterize(t *testing.T) {
	w := halfWorld(t)
	r, err := Rasterize(w, 8, 4)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	for row := range r.Rows {
		for col := range r.Cols {
			b, ok := r.At(col, row)
			if want := col < 4; ok != want {
				t.Fatalf("At(%d,%d) known = %v, want %v", col, row, ok, want)
			}
			if !ok {
				continue
			}
			x := (float64(col) + 0.5) * 32
			y := (float64(row) + 0.5) * 32
			loc, _ := w.CellAt(x, y)
			if b != loc.Attributes.Biome {
				t.Errorf("At(%d,%d) = %s, want %s", col, row, b, loc.Attributes.Biome)
			}
		}
	}
	if _, ok := r.At(8, 0); ok {
		t.Error("At outside the raster reported a sample")
	}

	if _, err := Rasterize(w, 0, 4); !errors.Is(err, ErrEmptyRaster) {
		t.Errorf("Rasterize(0,4): err = %v, want ErrEmptyRaster", err)
	}
}

func TestASCII(t *testing.T) {
	r, err := Rasterize(halfWorld(t), 8, 4)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	var buf bytes.Buffer
	if err := ASCII(&buf, r); err != nil {
		t.Fatalf("ASCII: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for row, line := range lines {
		if len(line) != 8 {
			t.Fatalf("line %d = %q, want 8 columns", row, line)
		}
		for col := range 8 {
			b, ok := r.At(col, row)
			want := byte(' ')
			if ok {
				want = Glyph(b)
			}
			if line[col] != want {
				t.Errorf("line %d col %d = %q, want %q", row, col, line[col], want)
			}
		}
	}
}

func TestGlyphsAndColorsDistinct(t *testing.T) {
	glyphSeen := make(map[byte]gen.Biome)
	colorSeen := make(map[[3]uint8]gen.Biome)
	for _, b := range gen.Biomes() {
		g := Glyph(b)
		if g == '?' || g == ' ' {
			t.Errorf("%s has no glyph", b)
		}
		if other, ok := glyphSeen[g]; ok {
			t.Errorf("%s and %s share glyph %q", b, other, g)
		}
		glyphSeen[g] = b

		c := Color(b)
		key := [3]uint8{c.R, c.G, c.B}
		if other, ok := colorSeen[key]; ok {
			t.Errorf("%s and %s share colour %v", b, other, c)
		}
		colorSeen[key] = b
	}

	var buf bytes.Buffer
	if err := Legend(&buf); err != nil {
		t.Fatalf("Legend: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != len(gen.Biomes()) {
		t.Errorf("legend has %d lines, want %d", got, len(gen.Biomes()))
	}
}

func TestImageScaled(t *testing.T) {
	r, err := Rasterize(halfWorld(t), 8, 4)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img := Image(r, 3)
	if got := img.Bounds().Size(); got.X != 24 || got.Y != 12 {
		t.Fatalf("image size = %v, want 24x12", got)
	}
	if a := img.RGBAAt(1, 1).A; a != 255 {
		t.Errorf("generated pixel alpha = %d, want 255", a)
	}
	if a := img.RGBAAt(22, 1).A; a != 0 {
		t.Errorf("ungenerated pixel alpha = %d, want 0", a)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, r, 2); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := decoded.Bounds().Size(); got.X != 16 || got.Y != 8 {
		t.Fatalf("png size = %v, want 16x8", got)
	}
}
