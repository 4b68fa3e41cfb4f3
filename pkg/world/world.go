// Package world tiles regions into a grid and answers point queries across
// them.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
	"github.com/OCharnyshevich/biomemap/pkg/world/region"
)

var ErrOutOfBounds = errors.New("chunk out of bounds")

// Config describes a world. Region.Chunk is ignored; each region gets its
// own chunk position.
type Config struct {
	Seed   int64
	Width  int // chunks
	Height int // chunks
	Region region.Config
	Fields map[string]region.FieldOptions

	// Stitch snaps each new region's border vertices onto its generated
	// neighbours.
	Stitch bool

	// Workers bounds parallel region generation. Zero uses GOMAXPROCS.
	Workers int
}

// Location is the result of a point query.
type Location struct {
	Region     *region.Region
	Cell       int
	Attributes region.Attributes
}

// World is a grid of regions sharing one set of noise fields.
type World struct {
	mu      sync.RWMutex
	cfg     Config
	fields  *region.Fields
	regions map[gen.ChunkPos]*region.Region
	log     *slog.Logger
}

// New creates an empty world. No region is generated yet.
func New(cfg Config, log *slog.Logger) (*World, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("world size %dx%d: %w", cfg.Width, cfg.Height, region.ErrInvalidConfig)
	}
	if err := cfg.Region.Validate(); err != nil {
		return nil, fmt.Errorf("region config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &World{
		cfg:     cfg,
		fields:  region.NewFields(cfg.Seed, cfg.Fields),
		regions: make(map[gen.ChunkPos]*region.Region),
		log:     log,
	}, nil
}

// Config returns the world configuration.
func (w *World) Config() Config {
	return w.cfg
}

// Bounds returns the world rectangle in world units.
func (w *World) Bounds() geom.Rect {
	size := w.cfg.Region.Size
	return geom.Rect{X1: float64(w.cfg.Width) * size, Y1: float64(w.cfg.Height) * size}
}

func (w *World) inGrid(pos gen.ChunkPos) bool {
	return pos.X >= 0 && pos.X < w.cfg.Width && pos.Y >= 0 && pos.Y < w.cfg.Height
}

func (w *World) regionConfig(pos gen.ChunkPos) region.Config {
	rc := w.cfg.Region
	rc.Chunk = pos
	return rc
}

func (w *World) build(pos gen.ChunkPos) (*region.Region, error) {
	if !w.inGrid(pos) {
		return nil, fmt.Errorf("generate %s: %w", pos, ErrOutOfBounds)
	}
	r, err := region.New(w.regionConfig(pos), w.fields)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", pos, err)
	}
	return r, nil
}

// Generate builds the region at (cx, cy), replacing any existing one, and
// stitches it against the neighbours that already exist.
func (w *World) Generate(cx, cy int) (*region.Region, error) {
	r, err := w.build(gen.ChunkPos{X: cx, Y: cy})
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.install(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Restore installs the region at (cx, cy) from a saved site list instead
// of generating its sites from noise.
func (w *World) Restore(cx, cy int, sites []geom.Point) (*region.Region, error) {
	pos := gen.ChunkPos{X: cx, Y: cy}
	if !w.inGrid(pos) {
		return nil, fmt.Errorf("restore %s: %w", pos, ErrOutOfBounds)
	}
	r, err := region.NewFromSites(w.regionConfig(pos), w.fields, sites)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", pos, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.install(r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetOrGenerate returns the region at (cx, cy), generating it if needed.
func (w *World) GetOrGenerate(cx, cy int) (*region.Region, error) {
	pos := gen.ChunkPos{X: cx, Y: cy}

	w.mu.RLock()
	if r, ok := w.regions[pos]; ok {
		w.mu.RUnlock()
		return r, nil
	}
	w.mu.RUnlock()

	r, err := w.build(pos)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Double-check after acquiring write lock.
	if existing, ok := w.regions[pos]; ok {
		return existing, nil
	}
	if err := w.install(r); err != nil {
		return nil, err
	}
	return r, nil
}

// GenerateAll builds every region of the grid in parallel, then installs
// and stitches them one by one in chunk order.
func (w *World) GenerateAll(ctx context.Context) error {
	built := make([]*region.Region, w.cfg.Width*w.cfg.Height)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers)
	for cy := range w.cfg.Height {
		for cx := range w.cfg.Width {
			idx := cy*w.cfg.Width + cx
			pos := gen.ChunkPos{X: cx, Y: cy}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := w.build(pos)
				if err != nil {
					return err
				}
				built[idx] = r
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range built {
		if err := w.install(r); err != nil {
			return err
		}
	}
	w.log.Info("world generated", "regions", len(built), "stitch", w.cfg.Stitch)
	return nil
}

// install stores r and stitches it to its existing neighbours. Callers
// hold the write lock.
func (w *World) install(r *region.Region) error {
	pos := r.Chunk
	w.regions[pos] = r

	if w.cfg.Stitch {
		neighbours := []struct {
			side geom.Side
			pos  gen.ChunkPos
		}{
			{geom.SideLeft, gen.ChunkPos{X: pos.X - 1, Y: pos.Y}},
			{geom.SideRight, gen.ChunkPos{X: pos.X + 1, Y: pos.Y}},
			{geom.SideTop, gen.ChunkPos{X: pos.X, Y: pos.Y - 1}},
			{geom.SideBottom, gen.ChunkPos{X: pos.X, Y: pos.Y + 1}},
		}
		for _, n := range neighbours {
			other, ok := w.regions[n.pos]
			if !ok {
				continue
			}
			if err := r.SmoothVertices(n.side, other); err != nil {
				return fmt.Errorf("stitch %s %s: %w", pos, n.side, err)
			}
		}
	}

	w.log.Debug("region generated",
		"chunk", pos.String(),
		"sites", len(r.Sites),
		"cells", len(r.Diagram.Cells),
		"influences", len(r.Influences),
	)
	return nil
}

// Region returns the generated region at (cx, cy).
func (w *World) Region(cx, cy int) (*region.Region, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.regions[gen.ChunkPos{X: cx, Y: cy}]
	return r, ok
}

// Regions returns the generated regions in chunk order.
func (w *World) Regions() []*region.Region {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*region.Region, 0, len(w.regions))
	for cy := range w.cfg.Height {
		for cx := range w.cfg.Width {
			if r, ok := w.regions[gen.ChunkPos{X: cx, Y: cy}]; ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// CellAt finds the cell under world point (x, y). It reports false when
// the point is outside the grid or its region is not generated.
func (w *World) CellAt(x, y float64) (Location, bool) {
	size := w.cfg.Region.Size
	if math.IsNaN(x) || math.IsNaN(y) {
		return Location{}, false
	}
	pos := gen.ChunkPos{X: int(math.Floor(x / size)), Y: int(math.Floor(y / size))}
	if !w.inGrid(pos) {
		return Location{}, false
	}

	w.mu.RLock()
	r, ok := w.regions[pos]
	w.mu.RUnlock()
	if !ok {
		return Location{}, false
	}

	i, ok := r.CellAt(geom.Point{X: x, Y: y})
	if !ok {
		return Location{}, false
	}
	return Location{Region: r, Cell: i, Attributes: r.Attributes[i]}, true
}
