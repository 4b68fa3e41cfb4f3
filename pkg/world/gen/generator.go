// Package gen produces the raw inputs of a region: jittered Voronoi sites,
// the influence sources that shape elevation, and the biome lookup table.
package gen

import "fmt"

// ChunkPos identifies a region by its grid coordinates.
type ChunkPos struct{ X, Y int }

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Layout selects how candidate sites are laid over a region.
type Layout string

const (
	// LayoutEdge places lattice points on the region border and jitters
	// them only along the border, so neighbours share their border sites.
	LayoutEdge Layout = "edge"

	// LayoutSeed places one jittered site in the centre of every division.
	// Borders only line up after vertex stitching.
	LayoutSeed Layout = "seed"
)

// ParseLayout converts a config string to a Layout. Empty selects LayoutEdge.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutEdge:
		return LayoutEdge, nil
	case LayoutSeed:
		return LayoutSeed, nil
	}
	return "", fmt.Errorf("unknown site layout %q", s)
}
