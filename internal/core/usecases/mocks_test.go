package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
)

// --- Projection helpers ---

// identityProjector maps lon/lat straight to x/y.
type identityProjector struct{}

func (identityProjector) Project(lon, lat float64) domain.ProjectedCoordinate {
	return domain.ProjectedCoordinate{X: lon, Y: lat}
}

// scaleMapper maps map units to pixels by a constant factor.
type scaleMapper struct{ scale float64 }

func (m scaleMapper) ToScreenPixel(p domain.ProjectedCoordinate) domain.Pixel {
	return domain.Pixel{X: p.X * m.scale, Y: p.Y * m.scale}
}

// --- Mock RenderSurface ---

type mockSurface struct {
	identityProjector
	scaleMapper

	mu        sync.Mutex
	hitTestFn func(px domain.Pixel) (*domain.Cluster, bool)
	tiles     int
	layers    [][]domain.Cluster
	style     ports.StyleFunc
	torn      int
}

func newMockSurface() *mockSurface {
	return &mockSurface{scaleMapper: scaleMapper{scale: 1}}
}

func (m *mockSurface) HitTest(px domain.Pixel) (*domain.Cluster, bool) {
	if m.hitTestFn != nil {
		return m.hitTestFn(px)
	}
	return nil, false
}

func (m *mockSurface) View() domain.ViewState { return domain.ViewState{Width: 100, Height: 100} }

func (m *mockSurface) DrawTiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles++
}

func (m *mockSurface) AddVisualLayer(clusters []domain.Cluster, style ports.StyleFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers = append(m.layers, clusters)
	m.style = style
}

func (m *mockSurface) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.torn++
}

func (m *mockSurface) layerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.layers)
}

func (m *mockSurface) lastLayer() []domain.Cluster {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.layers) == 0 {
		return nil
	}
	return m.layers[len(m.layers)-1]
}

// --- Mock TooltipSurface ---

type tooltipCall struct {
	show bool
	text string
	at   domain.ProjectedCoordinate
}

type mockTooltip struct {
	calls []tooltipCall
}

func (m *mockTooltip) Show(text string, at domain.ProjectedCoordinate) {
	m.calls = append(m.calls, tooltipCall{show: true, text: text, at: at})
}

func (m *mockTooltip) Hide() {
	m.calls = append(m.calls, tooltipCall{})
}

func (m *mockTooltip) last() tooltipCall {
	if len(m.calls) == 0 {
		return tooltipCall{}
	}
	return m.calls[len(m.calls)-1]
}

// --- Mock RecordSource ---

type mockSource struct {
	fetchFn func(ctx context.Context) (string, error)
}

func (m *mockSource) Fetch(ctx context.Context) (string, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}
	return "", nil
}

func staticSource(raw string) *mockSource {
	return &mockSource{fetchFn: func(ctx context.Context) (string, error) { return raw, nil }}
}

// --- Fixtures ---

func feature(x, y float64, rate domain.Rate) domain.Feature {
	return domain.Feature{
		Position:   domain.ProjectedCoordinate{X: x, Y: y},
		Attributes: domain.Attributes{Rate: rate},
	}
}

func clusterOf(rates ...domain.Rate) *domain.Cluster {
	fs := make([]domain.Feature, len(rates))
	c := &domain.Cluster{}
	for i, r := range rates {
		fs[i] = feature(0, 0, r)
		c.Members = append(c.Members, &fs[i])
	}
	return c
}

func rates(vs ...int) []domain.Rate {
	out := make([]domain.Rate, len(vs))
	for i, v := range vs {
		out[i] = domain.RateOf(v)
	}
	return out
}
