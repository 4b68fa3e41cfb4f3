package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/OCharnyshevich/biomemap/internal/config"
	"github.com/OCharnyshevich/biomemap/internal/indexdb"
	"github.com/OCharnyshevich/biomemap/internal/render"
	"github.com/OCharnyshevich/biomemap/internal/storage"
	"github.com/OCharnyshevich/biomemap/pkg/world"
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

func main() {
	cfg := config.DefaultConfig()

	var (
		configPath = flag.String("config", "", "YAML or JSON config file")
		seed       = flag.String("seed", string(cfg.Seed), "world seed, number or string")
		out        = flag.String("out", "", "directory to save config and region sites")
		restore    = flag.Bool("restore", false, "rebuild regions from sites saved in -out")
		indexPath  = flag.String("index", "", "SQLite index to record the run in")
		ascii      = flag.Int("ascii", 0, "print an ASCII map this many columns wide")
		pngPath    = flag.String("png", "", "write a PNG preview")
		pngCols    = flag.Int("png-cols", 256, "PNG preview samples per row")
		pngScale   = flag.Int("png-scale", 2, "PNG preview pixels per sample")
		query      = flag.String("query", "", "print the cell at world point x,y")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Float64Var(&cfg.RegionSize, "size", cfg.RegionSize, "region side length in world units")
	flag.IntVar(&cfg.WorldWidth, "width", cfg.WorldWidth, "world width in regions")
	flag.IntVar(&cfg.WorldHeight, "height", cfg.WorldHeight, "world height in regions")
	flag.IntVar(&cfg.Divisions, "divisions", cfg.Divisions, "site lattice divisions per region side")
	flag.StringVar(&cfg.SiteLayout, "layout", cfg.SiteLayout, "site layout: edge or seed")
	flag.Float64Var(&cfg.WaterLevel, "water-level", cfg.WaterLevel, "elevation below which cells are ocean")
	flag.BoolVar(&cfg.Stitch, "stitch", cfg.Stitch, "snap region borders onto their neighbours")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel region builds (0 = GOMAXPROCS)")
	flag.Parse()
	cfg.Seed = config.Seed(*seed)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("validate config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := run(ctx, cfg, options{
		out:      *out,
		restore:  *restore,
		explicit: explicit,
		index:    *indexPath,
		ascii:    *ascii,
		png:      *pngPath,
		pngCols:  *pngCols,
		pngScale: *pngScale,
		query:    *query,
		stdout:   os.Stdout,
	}, log); err != nil {
		log.Error("worldgen", "error", err)
		os.Exit(1)
	}
}

type options struct {
	out     string
	restore bool
	// explicit holds the flags set on the command line. On restore they
	// override the saved config; everything else comes from the save.
	explicit map[string]bool
	index    string
	ascii    int
	png      string
	pngCols  int
	pngScale int
	query    string
	stdout   io.Writer
}

func run(ctx context.Context, cfg *config.Config, opts options, log *slog.Logger) (*world.World, error) {
	var (
		st  *storage.Storage
		err error
	)
	if opts.out != "" {
		if st, err = storage.New(opts.out, log); err != nil {
			return nil, err
		}
	}

	if opts.restore {
		if st == nil {
			return nil, errors.New("restore needs an -out directory")
		}
		saved, err := st.LoadConfig()
		if err != nil {
			return nil, err
		}
		if saved == nil {
			return nil, fmt.Errorf("restore: no saved config in %s", opts.out)
		}
		config.Merge(cfg, saved, opts.explicit)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	w, err := world.New(cfg.WorldConfig(), log)
	if err != nil {
		return nil, err
	}

	if opts.restore {
		if _, err := st.LoadWorld(w); err != nil {
			return nil, err
		}
		for cy := range cfg.WorldHeight {
			for cx := range cfg.WorldWidth {
				if _, err := w.GetOrGenerate(cx, cy); err != nil {
					return nil, err
				}
			}
		}
	} else if err := w.GenerateAll(ctx); err != nil {
		return nil, err
	}

	if st != nil {
		if err := st.SaveConfig(cfg); err != nil {
			return nil, err
		}
		if err := st.SaveWorld(w); err != nil {
			return nil, err
		}
	}

	if opts.index != "" {
		idx, err := indexdb.Open(opts.index, log)
		if err != nil {
			return nil, err
		}
		_, err = idx.RecordWorld(ctx, w, cfg)
		if cerr := idx.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.ascii > 0 {
		// Terminal cells are about twice as tall as they are wide.
		rows := max(1, opts.ascii*cfg.WorldHeight/cfg.WorldWidth/2)
		r, err := render.Rasterize(w, opts.ascii, rows)
		if err != nil {
			return nil, err
		}
		if err := render.ASCII(opts.stdout, r); err != nil {
			return nil, err
		}
		if err := render.Legend(opts.stdout); err != nil {
			return nil, err
		}
	}

	if opts.png != "" {
		rows := max(1, opts.pngCols*cfg.WorldHeight/cfg.WorldWidth)
		r, err := render.Rasterize(w, opts.pngCols, rows)
		if err != nil {
			return nil, err
		}
		f, err := os.Create(opts.png)
		if err != nil {
			return nil, fmt.Errorf("create png: %w", err)
		}
		err = render.WritePNG(f, r, opts.pngScale)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		log.Info("wrote preview", "path", opts.png, "cols", opts.pngCols, "rows", rows)
	}

	if opts.query != "" {
		p, err := parsePoint(opts.query)
		if err != nil {
			return nil, err
		}
		loc, ok := w.CellAt(p.X, p.Y)
		if !ok {
			return nil, fmt.Errorf("query %s: no generated cell at that point", opts.query)
		}
		a := loc.Attributes
		fmt.Fprintf(opts.stdout, "chunk %s cell %d biome %s elevation %.3f moisture %.3f temperature %.3f\n",
			loc.Region.Chunk, loc.Cell, a.Biome, a.Elevation, a.Moisture, a.Temperature)
	}
	return w, nil
}

// parsePoint reads "x,y".
func parsePoint(s string) (geom.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return geom.Point{X: x, Y: y}, nil
}
