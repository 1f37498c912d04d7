package ports

import "github.com/samirrijal/dropmap/internal/core/domain"

// Projector maps WGS 84 longitude/latitude into the surface's map units.
type Projector interface {
	Project(lon, lat float64) domain.ProjectedCoordinate
}

// ScreenMapper maps map units to on-screen pixels for the current view.
type ScreenMapper interface {
	ToScreenPixel(p domain.ProjectedCoordinate) domain.Pixel
}

// HitTester reports the topmost cluster under a pixel, if any.
type HitTester interface {
	HitTest(px domain.Pixel) (*domain.Cluster, bool)
}

// StyleFunc computes the visual encoding of a cluster.
type StyleFunc func(c *domain.Cluster) domain.StyleSpec

// RenderSurface draws base tiles and clustered layers.
type RenderSurface interface {
	Projector
	ScreenMapper
	HitTester

	// View returns the current view.
	View() domain.ViewState
	// DrawTiles draws the base map layer.
	DrawTiles()
	// AddVisualLayer replaces the clustered layer.
	AddVisualLayer(clusters []domain.Cluster, style StyleFunc)
	// Teardown detaches the surface. No layer may be added afterwards.
	Teardown()
}

// TooltipSurface shows or hides the floating hover label.
type TooltipSurface interface {
	Show(text string, at domain.ProjectedCoordinate)
	Hide()
}
