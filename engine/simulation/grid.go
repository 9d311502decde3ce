package simulation

// grid buckets agent indices into cubic cells the size of the neighbour radius, so a neighbour
// query only visits the 27 cells around a point.
type grid struct {
	origin float32
	cell   float32
	dim    int
	heads  []int32
	next   []int32
}

func newGrid(bounds, radius float32) grid {
	if radius <= 0 {
		radius = bounds
	}
	// Agents may drift past the bounds before steering pulls them back; cells clamp at the edges.
	dim := max(int(2*bounds/radius), 1)
	return grid{
		origin: -bounds,
		cell:   2 * bounds / float32(dim),
		dim:    dim,
		heads:  make([]int32, dim*dim*dim),
	}
}

// build rebuilds the cell lists from positions.
func (g *grid) build(pos [][3]float32) {
	for i := range g.heads {
		g.heads[i] = -1
	}
	if cap(g.next) < len(pos) {
		g.next = make([]int32, len(pos))
	}
	g.next = g.next[:len(pos)]
	for i, p := range pos {
		c := g.index(g.coord(p[0]), g.coord(p[1]), g.coord(p[2]))
		g.next[i] = g.heads[c]
		g.heads[c] = int32(i)
	}
}

// neighbours calls visit for every agent in the cells around p, including p's own cell.
func (g *grid) neighbours(p [3]float32, visit func(j int)) {
	cx, cy, cz := g.coord(p[0]), g.coord(p[1]), g.coord(p[2])
	for x := max(cx-1, 0); x <= min(cx+1, g.dim-1); x++ {
		for y := max(cy-1, 0); y <= min(cy+1, g.dim-1); y++ {
			for z := max(cz-1, 0); z <= min(cz+1, g.dim-1); z++ {
				for j := g.heads[g.index(x, y, z)]; j >= 0; j = g.next[j] {
					visit(int(j))
				}
			}
		}
	}
}

func (g *grid) coord(v float32) int {
	c := int((v - g.origin) / g.cell)
	return min(max(c, 0), g.dim-1)
}

func (g *grid) index(x, y, z int) int {
	return (x*g.dim+y)*g.dim + z
}
