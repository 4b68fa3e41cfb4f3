package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OCharnyshevich/biomemap/internal/config"
	"github.com/OCharnyshevich/biomemap/internal/storage"
	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    geom.Point
		wantErr bool
	}{
		{"10,20", geom.Point{X: 10, Y: 20}, false},
		{" 1.5 , -3 ", geom.Point{X: 1.5, Y: -3}, false},
		{"10", geom.Point{}, true},
		{"a,2", geom.Point{}, true},
		{"1,b", geom.Point{}, true},
	}
	for _, tt := range tests {
		got, err := parsePoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePoint(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.RegionSize = 128
	cfg.Divisions = 8
	cfg.WorldWidth = 2

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := options{
		out:      filepath.Join(dir, "save"),
		index:    filepath.Join(dir, "index.db"),
		png:      filepath.Join(dir, "map.png"),
		pngCols:  16,
		pngScale: 1,
	}
	if _, err := run(context.Background(), cfg, opts, log); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, p := range []string{
		filepath.Join(dir, "save", "config.json"),
		filepath.Join(dir, "save", "regions", "r.0.0.sites.zst"),
		filepath.Join(dir, "save", "regions", "r.1.0.sites.zst"),
		filepath.Join(dir, "index.db"),
		filepath.Join(dir, "map.png"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}

	// A second run restores from the saved sites.
	opts.restore = true
	opts.png = ""
	if _, err := run(context.Background(), cfg, opts, log); err != nil {
		t.Fatalf("run with restore: %v", err)
	}
}

func smallConfig(seed string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = config.Seed(seed)
	cfg.RegionSize = 128
	cfg.Divisions = 8
	cfg.WorldWidth = 2
	return cfg
}

func TestRunRestoreUsesSavedConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "save")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	orig, err := run(ctx, smallConfig("alpha"), options{out: out}, log)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Defaults differ from the save in seed, size, divisions and width.
	// With no flags set on the command line the saved values must win.
	restored, err := run(ctx, config.DefaultConfig(), options{out: out, restore: true}, log)
	if err != nil {
		t.Fatalf("run with restore: %v", err)
	}

	saved, err := config.Load(filepath.Join(out, "config.json"))
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if diff := cmp.Diff(smallConfig("alpha"), saved); diff != "" {
		t.Errorf("saved config changed by restore (-want +got):\n%s", diff)
	}

	for cx := range 2 {
		a, _ := orig.Region(cx, 0)
		b, ok := restored.Region(cx, 0)
		if !ok {
			t.Fatalf("region (%d,0) not restored", cx)
		}
		if diff := cmp.Diff(a.Attributes, b.Attributes); diff != "" {
			t.Errorf("region (%d,0) attributes differ after restore (-orig +restored):\n%s", cx, diff)
		}
	}
}

func TestRunRestoreRejectsConflictingFlags(t *testing.T) {
	out := filepath.Join(t.TempDir(), "save")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	if _, err := run(ctx, smallConfig("alpha"), options{out: out}, log); err != nil {
		t.Fatalf("run: %v", err)
	}

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		explicit map[string]bool
	}{
		{"seed", func(c *config.Config) { c.Seed = "beta" }, map[string]bool{"seed": true}},
		{"divisions", func(c *config.Config) { c.Divisions = 9 }, map[string]bool{"divisions": true}},
		{"layout", func(c *config.Config) { c.SiteLayout = "seed" }, map[string]bool{"layout": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			_, err := run(ctx, cfg, options{out: out, restore: true, explicit: tt.explicit}, log)
			if !errors.Is(err, storage.ErrMismatch) {
				t.Fatalf("run with restore err = %v, want ErrMismatch", err)
			}

			saved, err := config.Load(filepath.Join(out, "config.json"))
			if err != nil {
				t.Fatalf("load saved config: %v", err)
			}
			if saved.Seed != "alpha" || saved.Divisions != 8 {
				t.Errorf("saved config overwritten: seed %q divisions %d", saved.Seed, saved.Divisions)
			}
		})
	}
}

func TestRunRestoreWithoutSave(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	if _, err := run(ctx, smallConfig("alpha"), options{restore: true}, log); err == nil {
		t.Error("restore without -out succeeded")
	}
	out := filepath.Join(t.TempDir(), "empty")
	if _, err := run(ctx, smallConfig("alpha"), options{out: out, restore: true}, log); err == nil {
		t.Error("restore from a directory with no saved config succeeded")
	}
}

func TestRunASCIIPrintsLegend(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := run(context.Background(), smallConfig("alpha"), options{ascii: 16, stdout: &buf}, log); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := buf.String()
	for _, b := range gen.Biomes() {
		if !strings.Contains(got, b.String()) {
			t.Errorf("output is missing legend entry for %s", b)
		}
	}
}
