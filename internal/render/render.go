// Package render turns a generated world into text and image previews by
// sampling it on a regular grid.
package render

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/OCharnyshevich/biomemap/pkg/world"
	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

var ErrEmptyRaster = errors.New("raster needs at least one column and row")

// Raster is a world sampled at the centres of a cols x rows grid.
type Raster struct {
	Cols, Rows int
	Bounds     geom.Rect

	Biomes    []gen.Biome
	Elevation []float64
	Known     []bool // false where no generated cell covers the sample
}

// Rasterize samples w over its full bounds.
func Rasterize(w *world.World, cols, rows int) (*Raster, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("rasterize %dx%d: %w", cols, rows, ErrEmptyRaster)
	}
	b := w.Bounds()
	r := &Raster{
		Cols:      cols,
		Rows:      rows,
		Bounds:    b,
		Biomes:    make([]gen.Biome, cols*rows),
		Elevation: make([]float64, cols*rows),
		Known:     make([]bool, cols*rows),
	}
	dx := b.Width() / float64(cols)
	dy := b.Height() / float64(rows)
	for row := range rows {
		y := b.Y0 + (float64(row)+0.5)*dy
		for col := range cols {
			x := b.X0 + (float64(col)+0.5)*dx
			loc, ok := w.CellAt(x, y)
			if !ok {
				continue
			}
			i := row*cols + col
			r.Biomes[i] = loc.Attributes.Biome
			r.Elevation[i] = loc.Attributes.Elevation
			r.Known[i] = true
		}
	}
	return r, nil
}

// At returns the biome sampled at (col, row).
func (r *Raster) At(col, row int) (gen.Biome, bool) {
	if col < 0 || col >= r.Cols || row < 0 || row >= r.Rows {
		return 0, false
	}
	i := row*r.Cols + col
	return r.Biomes[i], r.Known[i]
}

var glyphs = [...]byte{
	gen.Ocean:               '~',
	gen.Snow:                '*',
	gen.Tundra:              '-',
	gen.Scorched:            '%',
	gen.Taiga:               'T',
	gen.Shrubland:           's',
	gen.TemperateDesert:     'd',
	gen.TemperateRainforest: 'R',
	gen.TemperateForest:     'F',
	gen.Grassland:           '"',
	gen.TropicalRainforest:  'J',
	gen.TropicalForest:      'f',
	gen.Plains:              '.',
	gen.Desert:              ':',
}

// Glyph returns the character ASCII uses for b.
func Glyph(b gen.Biome) byte {
	if int(b) < len(glyphs) {
		return glyphs[b]
	}
	return '?'
}

// ASCII writes one line per raster row. Unsampled points are blank.
func ASCII(out io.Writer, r *Raster) error {
	bw := bufio.NewWriter(out)
	line := make([]byte, r.Cols+1)
	line[r.Cols] = '\n'
	for row := range r.Rows {
		for col := range r.Cols {
			b, ok := r.At(col, row)
			if !ok {
				line[col] = ' '
				continue
			}
			line[col] = Glyph(b)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Legend writes the glyph of every biome, one per line.
func Legend(out io.Writer) error {
	for _, b := range gen.Biomes() {
		if _, err := fmt.Fprintf(out, "%c  %s\n", Glyph(b), b); err != nil {
			return err
		}
	}
	return nil
}

var palette = [...]color.RGBA{
	gen.Ocean:               {48, 52, 109, 255},
	gen.Snow:                {238, 240, 249, 255},
	gen.Tundra:              {214, 222, 232, 255},
	gen.Scorched:            {178, 183, 202, 255},
	gen.Taiga:               {133, 181, 165, 255},
	gen.Shrubland:           {109, 107, 44, 255},
	gen.TemperateDesert:     {200, 194, 172, 255},
	gen.TemperateRainforest: {92, 162, 125, 255},
	gen.TemperateForest:     {52, 101, 36, 255},
	gen.Grassland:           {110, 170, 62, 255},
	gen.TropicalRainforest:  {102, 204, 144, 255},
	gen.TropicalForest:      {52, 131, 96, 255},
	gen.Plains:              {162, 192, 62, 255},
	gen.Desert:              {232, 212, 94, 255},
}

// Color returns the map colour of b.
func Color(b gen.Biome) color.RGBA {
	if int(b) < len(palette) {
		return palette[b]
	}
	return color.RGBA{255, 0, 255, 255}
}

// shade darkens c towards black as elevation falls.
func shade(c color.RGBA, elevation float64) color.RGBA {
	f := 0.5 + 0.5*geom.Clamp(elevation, 0, 1)
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}

// Image draws the raster with one pixel per sample, scaled up by scale
// with nearest-neighbour filtering. Unsampled points are transparent.
func Image(r *Raster, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, r.Cols, r.Rows))
	for row := range r.Rows {
		for col := range r.Cols {
			i := row*r.Cols + col
			if !r.Known[i] {
				continue
			}
			src.SetRGBA(col, row, shade(Color(r.Biomes[i]), r.Elevation[i]))
		}
	}
	if scale == 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Cols*scale, r.Rows*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// WritePNG encodes Image(r, scale) as PNG.
func WritePNG(out io.Writer, r *Raster, scale int) error {
	if err := png.Encode(out, Image(r, scale)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
