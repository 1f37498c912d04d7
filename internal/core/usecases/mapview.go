package usecases

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/pkg/telemetry"
)

// LoadResult reports how a map view's record load ended.
type LoadResult struct {
	Stats     ParseStats
	Features  int
	Clusters  int
	Duration  time.Duration
	Err       error
	Discarded bool // finished after teardown, nothing was applied
}

// MapViewOptions tunes a MapView. Zero values fall back to defaults.
type MapViewOptions struct {
	Distance    float64
	Style       ports.StyleFunc
	Logger      *slog.Logger
	OnLoad      func(LoadResult)
	OnRecluster func(clusters int, took time.Duration)
}

// MapView drives the parse, build, cluster and style pipeline against a
// render surface for the lifetime of one mounted map.
type MapView struct {
	surface ports.RenderSurface
	tooltip ports.TooltipSurface
	source  ports.RecordSource
	opts    MapViewOptions
	hover   *HoverResolver

	mu       sync.Mutex
	features []domain.Feature
	mounted  bool
	loaded   bool
	torn     bool
	cancel   context.CancelFunc
}

// NewMapView creates an unmounted MapView.
func NewMapView(surface ports.RenderSurface, tooltip ports.TooltipSurface, source ports.RecordSource, opts MapViewOptions) *MapView {
	if opts.Distance < 0 {
		opts.Distance = 0
	}
	if opts.Style == nil {
		opts.Style = Style
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &MapView{
		surface: surface,
		tooltip: tooltip,
		source:  source,
		opts:    opts,
		hover:   NewHoverResolver(surface, tooltip),
	}
}

// Mount draws the base tiles and starts fetching records in the background.
// The returned channel is closed once the load attempt has finished.
func (m *MapView) Mount(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	m.mu.Lock()
	if m.mounted || m.torn {
		m.mu.Unlock()
		close(done)
		return done
	}
	m.mounted = true
	m.surface.DrawTiles()
	fetchCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		m.load(fetchCtx)
	}()
	return done
}

func (m *MapView) load(ctx context.Context) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanMapViewLoad)
	defer span.End()

	start := time.Now()
	var result LoadResult
	defer func() {
		result.Duration = time.Since(start)
		if m.opts.OnLoad != nil {
			m.opts.OnLoad(result)
		}
	}()

	raw, err := m.source.Fetch(ctx)
	if err != nil {
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		m.mu.Lock()
		result.Discarded = m.torn
		m.mu.Unlock()
		if !result.Discarded {
			m.opts.Logger.Warn("record fetch failed, map stays featureless", "error", err)
		}
		return
	}

	records, stats := ParseWithStats(strings.NewReader(raw))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn {
		result.Discarded = true
		span.SetAttributes(attribute.Bool("discarded", true))
		m.opts.Logger.Debug("map torn down before records arrived, discarding")
		return
	}

	m.features = BuildFeatures(records, m.surface)
	m.loaded = true
	result.Stats = *stats
	result.Features = len(m.features)
	result.Clusters = m.reclusterLocked()

	span.SetAttributes(
		attribute.Int("records", stats.Records),
		attribute.Int("skipped", stats.Skipped),
		attribute.Int("features", result.Features),
		attribute.Int("clusters", result.Clusters),
	)
	m.opts.Logger.Debug("map layer loaded",
		"records", stats.Records,
		"skipped", stats.Skipped,
		"invalid_rates", stats.InvalidRates,
		"features", result.Features,
		"clusters", result.Clusters,
	)
}

// OnViewChange reclusters for the surface's current view. It does nothing
// before the records have loaded or after teardown.
func (m *MapView) OnViewChange() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn || !m.loaded {
		return
	}
	m.reclusterLocked()
}

func (m *MapView) reclusterLocked() int {
	start := time.Now()
	clusters := ClusterFeatures(m.features, m.surface, m.opts.Distance)
	m.surface.AddVisualLayer(clusters, m.opts.Style)
	if m.opts.OnRecluster != nil {
		m.opts.OnRecluster(len(clusters), time.Since(start))
	}
	return len(clusters)
}

// OnPointerMove resolves the hover state for a pointer event.
func (m *MapView) OnPointerMove(ev domain.PointerEvent) domain.HoverState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn {
		return domain.HoverState{Phase: domain.HoverIdle}
	}
	return m.hover.OnPointerMove(ev)
}

// HoverState returns the currently displayed hover state.
func (m *MapView) HoverState() domain.HoverState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hover.State()
}

// Loaded reports whether records have been applied to the surface.
func (m *MapView) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Teardown cancels a pending fetch, hides the tooltip and detaches the
// surface. A fetch that completes afterwards is discarded. Safe to call
// more than once.
func (m *MapView) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn {
		return
	}
	m.torn = true
	if m.cancel != nil {
		m.cancel()
	}
	m.hover.Reset()
	m.features = nil
	m.loaded = false
	m.surface.Teardown()
}
