package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/dropmap/internal/core/domain"
)

const (
	// HalfWorld is half the width of the EPSG:3857 square in meters.
	HalfWorld = math.Pi * orb.EarthRadius

	// TileSize is the edge of one map tile in pixels.
	TileSize = 256

	// MaxZoom bounds view zoom levels.
	MaxZoom = 28
)

// Mercator projects WGS 84 lon/lat into spherical (web) Mercator meters.
type Mercator struct{}

// Project clamps the y axis to the square world so that the poles stay
// finite.
func (Mercator) Project(lon, lat float64) domain.ProjectedCoordinate {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return domain.ProjectedCoordinate{X: p.X(), Y: clamp(p.Y(), -HalfWorld, HalfWorld)}
}

// ToLonLat is the inverse of Project.
func ToLonLat(p domain.ProjectedCoordinate) domain.GeoPoint {
	g := project.Mercator.ToWGS84(orb.Point{p.X, p.Y})
	return domain.GeoPoint{Lat: g.Lat(), Lon: g.Lon()}
}

// Resolution returns meters per pixel at the given zoom.
func Resolution(zoom float64) float64 {
	return 2 * HalfWorld / TileSize / math.Exp2(zoom)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
