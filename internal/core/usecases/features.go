package usecases

import (
	"iter"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
)

// BuildFeatures projects each record onto the surface's coordinate system.
// Records whose projected position is not finite are dropped; order is kept.
func BuildFeatures(records iter.Seq[domain.PointRecord], proj ports.Projector) []domain.Feature {
	var features []domain.Feature
	for rec := range records {
		pos := proj.Project(rec.Location.Lon, rec.Location.Lat)
		if !pos.IsFinite() {
			continue
		}
		features = append(features, domain.Feature{
			Position: pos,
			Attributes: domain.Attributes{
				Name:    rec.Name,
				Country: rec.Country,
				Rate:    rec.Rate,
			},
		})
	}
	return features
}
