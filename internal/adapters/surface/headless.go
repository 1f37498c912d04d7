// Package surface implements render surfaces that keep the clustered layer in
// memory and hand it to a callback instead of drawing it.
package surface

import (
	"sync"

	"github.com/golang/geo/r2"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
)

// RenderedCluster is a cluster as placed on screen.
type RenderedCluster struct {
	Cluster *domain.Cluster
	Style   domain.StyleSpec
	Pixel   domain.Pixel
}

// Options hooks a Headless surface up to whatever actually paints.
type Options struct {
	OnTiles func(view domain.ViewState)
	OnLayer func(view domain.ViewState, layer []RenderedCluster)
}

// Headless is a ports.RenderSurface over a geospatial.Viewport.
type Headless struct {
	opts Options

	mu       sync.RWMutex
	viewport *geospatial.Viewport
	clusters []domain.Cluster
	layer    []RenderedCluster
	torn     bool
}

var _ ports.RenderSurface = (*Headless)(nil)

// NewHeadless creates a surface showing view.
func NewHeadless(view domain.ViewState, opts Options) (*Headless, error) {
	vp, err := geospatial.NewViewport(view)
	if err != nil {
		return nil, err
	}
	return &Headless{opts: opts, viewport: vp}, nil
}

// SetView moves the surface. Callers recluster afterwards.
func (h *Headless) SetView(view domain.ViewState) error {
	vp, err := geospatial.NewViewport(view)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.viewport = vp
	h.mu.Unlock()
	return nil
}

func (h *Headless) View() domain.ViewState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewport.View()
}

func (h *Headless) Project(lon, lat float64) domain.ProjectedCoordinate {
	return geospatial.Mercator{}.Project(lon, lat)
}

func (h *Headless) ToScreenPixel(p domain.ProjectedCoordinate) domain.Pixel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewport.ToScreenPixel(p)
}

// ToCoordinate maps a screen pixel back to map units.
func (h *Headless) ToCoordinate(px domain.Pixel) domain.ProjectedCoordinate {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewport.ToCoordinate(px)
}

func (h *Headless) DrawTiles() {
	h.mu.RLock()
	torn, view := h.torn, h.viewport.View()
	h.mu.RUnlock()
	if !torn && h.opts.OnTiles != nil {
		h.opts.OnTiles(view)
	}
}

// AddVisualLayer replaces the clustered layer. Clusters are drawn in order,
// so later ones sit on top.
func (h *Headless) AddVisualLayer(clusters []domain.Cluster, style ports.StyleFunc) {
	h.mu.Lock()
	if h.torn {
		h.mu.Unlock()
		return
	}
	h.clusters = clusters
	h.layer = make([]RenderedCluster, len(clusters))
	for i := range clusters {
		c := &h.clusters[i]
		h.layer[i] = RenderedCluster{
			Cluster: c,
			Style:   style(c),
			Pixel:   h.viewport.ToScreenPixel(c.Anchor),
		}
	}
	layer, view := h.layer, h.viewport.View()
	h.mu.Unlock()

	if h.opts.OnLayer != nil {
		h.opts.OnLayer(view, layer)
	}
}

// Layer returns the current clustered layer.
func (h *Headless) Layer() []RenderedCluster {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]RenderedCluster, len(h.layer))
	copy(out, h.layer)
	return out
}

// HitTest returns the topmost cluster whose circle contains px.
func (h *Headless) HitTest(px domain.Pixel) (*domain.Cluster, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.torn || !px.IsFinite() {
		return nil, false
	}
	p := r2.Point{X: px.X, Y: px.Y}
	for i := len(h.layer) - 1; i >= 0; i-- {
		rc := h.layer[i]
		if !rc.Pixel.IsFinite() {
			continue
		}
		if p.Sub(r2.Point{X: rc.Pixel.X, Y: rc.Pixel.Y}).Norm() <= rc.Style.RadiusPixels {
			return rc.Cluster, true
		}
	}
	return nil, false
}

// Teardown drops the layer; later layers are ignored.
func (h *Headless) Teardown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.torn = true
	h.clusters = nil
	h.layer = nil
}

func (h *Headless) TornDown() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.torn
}
