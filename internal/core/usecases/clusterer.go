package usecases

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
)

// DefaultClusterDistance is the proximity threshold in screen pixels.
const DefaultClusterDistance = 10.0

type cellKey struct{ x, y int64 }

// pixelGrid buckets feature indexes by screen cell so that neighbour lookups
// only visit the 3x3 cells around a seed. Cell size is never below the
// clustering distance.
type pixelGrid struct {
	size  float64
	cells map[cellKey][]int
}

func newPixelGrid(size float64) *pixelGrid {
	return &pixelGrid{size: size, cells: make(map[cellKey][]int)}
}

func (g *pixelGrid) key(p r2.Point) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / g.size)),
		y: int64(math.Floor(p.Y / g.size)),
	}
}

func (g *pixelGrid) insert(idx int, p r2.Point) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], idx)
}

func (g *pixelGrid) around(p r2.Point, fn func(idx int)) {
	k := g.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, idx := range g.cells[cellKey{k.x + dx, k.y + dy}] {
				fn(idx)
			}
		}
	}
}

// ClusterFeatures groups features by screen proximity at the current view.
//
// Features are visited in slice order. Each feature that is not yet in a
// cluster seeds a new one, and every other unassigned feature within
// distancePx (Euclidean, inclusive) of the seed's pixel joins it, in
// ascending index order. The anchor is the centroid of member positions.
// The result is a partition of features and is fully determined by the
// arguments. Members point into features.
func ClusterFeatures(features []domain.Feature, screen ports.ScreenMapper, distancePx float64) []domain.Cluster {
	if len(features) == 0 {
		return nil
	}
	if !(distancePx > 0) {
		distancePx = 0
	}

	grid := newPixelGrid(math.Max(distancePx, 1))
	pixels := make([]r2.Point, len(features))
	onScreen := make([]bool, len(features))
	for i := range features {
		px := screen.ToScreenPixel(features[i].Position)
		if !px.IsFinite() {
			continue
		}
		pixels[i] = r2.Point{X: px.X, Y: px.Y}
		onScreen[i] = true
		grid.insert(i, pixels[i])
	}

	assigned := make([]bool, len(features))
	clusters := make([]domain.Cluster, 0, len(features))
	var candidates []int

	for seed := range features {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true
		members := []int{seed}

		if onScreen[seed] {
			candidates = candidates[:0]
			grid.around(pixels[seed], func(idx int) {
				if assigned[idx] {
					return
				}
				if pixels[seed].Sub(pixels[idx]).Norm() <= distancePx {
					candidates = append(candidates, idx)
				}
			})
			sort.Ints(candidates)
			for _, idx := range candidates {
				assigned[idx] = true
				members = append(members, idx)
			}
		}

		clusters = append(clusters, newCluster(features, members))
	}

	return clusters
}

func newCluster(features []domain.Feature, members []int) domain.Cluster {
	c := domain.Cluster{Members: make([]*domain.Feature, 0, len(members))}
	var sumX, sumY float64
	for _, idx := range members {
		f := &features[idx]
		c.Members = append(c.Members, f)
		sumX += f.Position.X
		sumY += f.Position.Y
	}
	n := float64(len(members))
	c.Anchor = domain.ProjectedCoordinate{X: sumX / n, Y: sumY / n}
	return c
}
