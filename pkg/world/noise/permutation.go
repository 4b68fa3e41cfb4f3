package noise

// 2D simplex noise over a seeded permutation table.
// Produces values in the range [-1, 1].

// grad2 are the gradient directions used for 2D lattice corners.
var grad2 = [12][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {1, 0}, {-1, 0},
	{0, 1}, {0, -1}, {0, 1}, {0, -1},
}

// Permutation is a simplex sampler driven by a shuffled lattice table.
type Permutation struct {
	perm [512]int
}

// NewPermutation shuffles the lattice table with a seed-derived LCG.
func NewPermutation(seed int64) *Permutation {
	pt := &Permutation{}

	var p [256]int
	for i := range p {
		p[i] = i
	}

	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s>>33)&0x7FFFFFFF) % (i + 1)
		p[i], p[j] = p[j], p[i]
	}

	// Doubled so corner lookups never wrap.
	for i := range pt.perm {
		pt.perm[i] = p[i&255]
	}
	return pt
}

// Eval2 returns simplex noise at (x, y).
func (pt *Permutation) Eval2(x, y float64) float64 {
	const (
		f2 = 0.36602540378443864676 // (sqrt(3) - 1) / 2
		g2 = 0.21132486540518711775 // (3 - sqrt(3)) / 6
	)

	s := (x + y) * f2
	i := fastFloor(x + s)
	j := fastFloor(y + s)

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1 + 2*g2
	y2 := y0 - 1 + 2*g2

	ii := i & 255
	jj := j & 255
	corners := [3]struct {
		g    int
		x, y float64
	}{
		{pt.perm[ii+pt.perm[jj]] % 12, x0, y0},
		{pt.perm[ii+i1+pt.perm[jj+j1]] % 12, x1, y1},
		{pt.perm[ii+1+pt.perm[jj+1]] % 12, x2, y2},
	}

	var n float64
	for _, c := range corners {
		t := 0.5 - c.x*c.x - c.y*c.y
		if t < 0 {
			continue
		}
		t *= t
		n += t * t * (grad2[c.g][0]*c.x + grad2[c.g][1]*c.y)
	}
	return 70 * n
}

func fastFloor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}
