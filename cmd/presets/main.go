package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/biomemap/internal/config"
)

func main() {
	var (
		src = flag.String("src", "", "preset bundle source, any go-getter URL (git::, https://, s3::, local path)")
		out   = flag.String("o", "./presets", "output dir path")
		force = flag.Bool("force", false, "replace a non-empty output dir")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *src == "" {
		log.Error("source url required")
		os.Exit(2)
	}
	if *out == "" {
		log.Error("output dir path required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("start downloading presets", "src", *src, "dst", *out)
	n, err := fetch(ctx, *src, *out, *force, log)
	if err != nil {
		log.Error("download presets", "error", err)
		os.Exit(1)
	}
	log.Info("done downloading presets", "dst", *out, "presets", n)
}

var errNotEmpty = errors.New("output dir is not empty, use -force to replace it")

// fetch downloads src next to out, validates it and only then moves it
// into place. out is left untouched on any failure.
func fetch(ctx context.Context, src, out string, force bool, log *slog.Logger) (int, error) {
	dst, err := checkTarget(out)
	if err != nil {
		return 0, err
	}
	if !force {
		if empty, err := isEmptyDir(dst); err != nil {
			return 0, err
		} else if !empty {
			return 0, fmt.Errorf("%s: %w", dst, errNotEmpty)
		}
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, ".presets-*")
	if err != nil {
		return 0, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	// The git getter wants a destination that does not exist yet.
	staged := filepath.Join(tmp, "bundle")
	if err := get.Get(staged, src, get.WithContext(ctx)); err != nil {
		return 0, err
	}
	n, err := validatePresets(staged, log)
	if err != nil {
		return 0, err
	}
	if err := install(staged, dst, force); err != nil {
		return 0, err
	}
	return n, nil
}

// checkTarget resolves out and refuses directories that must never be
// replaced wholesale.
func checkTarget(out string) (string, error) {
	dst, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	if dst == filepath.Dir(dst) {
		return "", fmt.Errorf("refusing to replace filesystem root %s", dst)
	}
	if wd, err := os.Getwd(); err == nil && dst == wd {
		return "", fmt.Errorf("refusing to replace the working directory %s", dst)
	}
	if home, err := os.UserHomeDir(); err == nil && dst == filepath.Clean(home) {
		return "", fmt.Errorf("refusing to replace the home directory %s", dst)
	}
	return dst, nil
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// install moves the staged bundle to dst. An existing non-empty dst is
// only removed when force is set.
func install(staged, dst string, force bool) error {
	empty, err := isEmptyDir(dst)
	if err != nil {
		return err
	}
	if !empty && !force {
		return fmt.Errorf("%s: %w", dst, errNotEmpty)
	}
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear %s: %w", dst, err)
	}
	if err := os.Rename(staged, dst); err != nil {
		return fmt.Errorf("install presets: %w", err)
	}
	return nil
}

// validatePresets loads every config file under dir and reports the first
// invalid one.
func validatePresets(dir string, log *slog.Logger) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		log.Debug("preset ok", "path", path, "seed", string(cfg.Seed), "world", fmt.Sprintf("%dx%d", cfg.WorldWidth, cfg.WorldHeight))
		n++
		return nil
	})
	return n, err
}
