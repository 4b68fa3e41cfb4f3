// Package storage persists generator config and region site lists on disk.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/OCharnyshevich/biomemap/internal/config"
	"github.com/OCharnyshevich/biomemap/pkg/world"
	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/region"
)

var ErrMismatch = errors.New("saved region does not match world")

// Storage handles file-based persistence for config and region sites.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a new Storage rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	dirs := []string{
		dir,
		filepath.Join(dir, "regions"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return &Storage{dir: dir, log: log}, nil
}

// LoadConfig reads and validates the saved config.json. It returns nil
// when nothing has been saved yet.
func (s *Storage) LoadConfig() (*config.Config, error) {
	path := filepath.Join(s.dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(data, ".json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.log.Info("loaded saved config", "path", path, "seed", string(cfg.Seed))
	return cfg, nil
}

// SaveConfig writes cfg to config.json atomically.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

func (s *Storage) sitesPath(pos gen.ChunkPos) string {
	return filepath.Join(s.dir, "regions", fmt.Sprintf("r.%d.%d.sites.zst", pos.X, pos.Y))
}

// SaveSites writes the site list of r, generated from the world seed, as
// zstd-compressed JSON.
func (s *Storage) SaveSites(r *region.Region, seed int64) error {
	path := s.sitesPath(r.Chunk)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create sites %s: %w", r.Chunk, err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(SitesDataFromRegion(r, seed)); err != nil {
		enc.Close()
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode sites %s: %w", r.Chunk, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush sites %s: %w", r.Chunk, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close sites %s: %w", r.Chunk, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadSites reads the saved site list of a chunk, or nil if none exists.
func (s *Storage) LoadSites(pos gen.ChunkPos) (*SitesData, error) {
	f, err := os.Open(s.sitesPath(pos))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open sites %s: %w", pos, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var sd SitesData
	if err := json.NewDecoder(dec).Decode(&sd); err != nil {
		return nil, fmt.Errorf("parse sites %s: %w", pos, err)
	}
	if sd.Version != sitesVersion {
		return nil, fmt.Errorf("sites %s: unsupported version %d", pos, sd.Version)
	}
	if sd.Pos() != pos {
		return nil, fmt.Errorf("sites %s: file holds chunk %s: %w", pos, sd.Pos(), ErrMismatch)
	}
	return &sd, nil
}

// SaveWorld writes the site list of every generated region.
func (s *Storage) SaveWorld(w *world.World) error {
	seed := w.Config().Seed
	regions := w.Regions()
	for _, r := range regions {
		if err := s.SaveSites(r, seed); err != nil {
			return err
		}
	}
	s.log.Info("saved region sites", "regions", len(regions), "dir", s.dir)
	return nil
}

// LoadWorld restores every region of w that has a saved site list and
// returns how many were restored. Sites generated with another seed, size,
// division count or layout are rejected with ErrMismatch.
func (s *Storage) LoadWorld(w *world.World) (int, error) {
	cfg := w.Config()
	n := 0
	for cy := range cfg.Height {
		for cx := range cfg.Width {
			pos := gen.ChunkPos{X: cx, Y: cy}
			sd, err := s.LoadSites(pos)
			if err != nil {
				return n, err
			}
			if sd == nil {
				continue
			}
			if err := sd.Check(cfg.Seed, cfg.Region); err != nil {
				return n, err
			}
			if _, err := w.Restore(cx, cy, sd.Points()); err != nil {
				return n, err
			}
			n++
		}
	}
	if n > 0 {
		s.log.Info("restored regions from saved sites", "regions", n)
	}
	return n, nil
}

// atomicWrite writes data using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
