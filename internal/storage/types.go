package storage

import (
	"fmt"

	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/geom"
	"github.com/OCharnyshevich/biomemap/pkg/world/region"
)

const sitesVersion = 2

// SitesData is the serializable site list of one region.
type SitesData struct {
	Version   int          `json:"version"`
	Seed      int64        `json:"seed"`
	Chunk     ChunkData    `json:"chunk"`
	Size      float64      `json:"size"`
	Divisions int          `json:"divisions"`
	Layout    gen.Layout   `json:"layout"`
	Sites     [][2]float64 `json:"sites"`
}

// ChunkData holds a region's grid coordinates.
type ChunkData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SitesDataFromRegion captures the site list of r, generated from the
// world seed.
func SitesDataFromRegion(r *region.Region, seed int64) *SitesData {
	sd := &SitesData{
		Version:   sitesVersion,
		Seed:      seed,
		Chunk:     ChunkData{X: r.Chunk.X, Y: r.Chunk.Y},
		Size:      r.Dimensions.X,
		Divisions: r.Divisions,
		Layout:    r.Config().Layout,
		Sites:     make([][2]float64, len(r.Sites)),
	}
	for i, s := range r.Sites {
		sd.Sites[i] = [2]float64{s.X, s.Y}
	}
	return sd
}

// Check reports whether the sites were generated with the same inputs the
// world would use for them.
func (sd *SitesData) Check(seed int64, rc region.Config) error {
	switch {
	case sd.Seed != seed:
		return fmt.Errorf("sites %s: seed %d, world uses %d: %w", sd.Pos(), sd.Seed, seed, ErrMismatch)
	case sd.Size != rc.Size:
		return fmt.Errorf("sites %s: size %v, world uses %v: %w", sd.Pos(), sd.Size, rc.Size, ErrMismatch)
	case sd.Divisions != rc.Divisions:
		return fmt.Errorf("sites %s: divisions %d, world uses %d: %w", sd.Pos(), sd.Divisions, rc.Divisions, ErrMismatch)
	case sd.Layout != rc.Layout:
		return fmt.Errorf("sites %s: layout %s, world uses %s: %w", sd.Pos(), sd.Layout, rc.Layout, ErrMismatch)
	}
	return nil
}

// Pos returns the chunk the data belongs to.
func (sd *SitesData) Pos() gen.ChunkPos {
	return gen.ChunkPos{X: sd.Chunk.X, Y: sd.Chunk.Y}
}

// Points converts the stored sites back to points.
func (sd *SitesData) Points() []geom.Point {
	out := make([]geom.Point, len(sd.Sites))
	for i, s := range sd.Sites {
		out[i] = geom.Point{X: s[0], Y: s[1]}
	}
	return out
}
