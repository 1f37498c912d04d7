package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/dropmap/internal/adapters/geojson"
	"github.com/samirrijal/dropmap/internal/adapters/surface"
	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/usecases"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
	"github.com/samirrijal/dropmap/internal/pkg/metrics"
	"github.com/samirrijal/dropmap/internal/pkg/telemetry"
)

var errUnknownMessage = errors.New("unknown message type")

// --- Client → server ---

type envelope struct {
	Type string `json:"type"`
}

type centerMsg struct {
	Lat float64 `json:"lat" validate:"gte=-85.06,lte=85.06"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type viewMsg struct {
	Center centerMsg `json:"center"`
	Zoom   float64   `json:"zoom" validate:"gte=0,lte=28"`
	Width  int       `json:"width" validate:"gte=1,lte=16384"`
	Height int       `json:"height" validate:"gte=1,lte=16384"`
}

type pointerMsg struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// --- Server → client ---

type tilesOut struct {
	Type string           `json:"type"`
	URL  string           `json:"url"`
	View domain.ViewState `json:"view"`
}

type layerOut struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type tooltipOut struct {
	Type       string                     `json:"type"`
	Visible    bool                       `json:"visible"`
	Text       string                     `json:"text,omitempty"`
	Coordinate *[2]float64                `json:"coordinate,omitempty"`
	LonLat     *[2]float64                `json:"lonlat,omitempty"`
	Placement  *usecases.TooltipPlacement `json:"placement,omitempty"`
}

type errorOut struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Session bridges one browser connection to a headless surface and a
// MapView. The browser paints what the session sends and reports view
// changes and pointer moves back.
type Session struct {
	ID uuid.UUID

	send    func(v any) error
	log     *slog.Logger
	surface *surface.Headless
	view    *usecases.MapView
	tiles   string
	closed  bool
}

// NewSession creates a session at the configured initial view. send must be
// safe for concurrent use.
func NewSession(deps *Dependencies, send func(v any) error) (*Session, error) {
	s := &Session{
		ID:    uuid.New(),
		send:  send,
		tiles: deps.TilesURL,
	}
	s.log = slog.Default().With("session", s.ID.String())

	surf, err := surface.NewHeadless(deps.View, surface.Options{
		OnTiles: s.sendTiles,
		OnLayer: s.sendLayer,
	})
	if err != nil {
		return nil, fmt.Errorf("session surface: %w", err)
	}
	s.surface = surf

	styler := deps.styler()
	s.view = usecases.NewMapView(surf, s, deps.Source, usecases.MapViewOptions{
		Distance:    deps.Distance,
		Style:       styler.Style,
		Logger:      s.log,
		OnLoad:      observeLoad,
		OnRecluster: observeRecluster,
	})
	return s, nil
}

// Start draws the base map and begins loading records. The returned channel
// closes when loading has finished.
func (s *Session) Start(ctx context.Context) <-chan struct{} {
	metrics.ActiveSessions.Inc()
	s.log.Debug("session started")
	return s.view.Mount(ctx)
}

// Handle processes one client message. Invalid messages are answered with
// an error message and do not end the session.
func (s *Session) Handle(ctx context.Context, raw []byte) {
	if err := s.handle(ctx, raw); err != nil {
		s.log.Debug("rejected client message", "error", err)
		_ = s.send(errorOut{Type: "error", Message: err.Error()})
	}
}

func (s *Session) handle(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.New("invalid JSON")
	}

	switch env.Type {
	case "view":
		var m viewMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return errors.New("invalid view message")
		}
		if err := validate.Struct(m); err != nil {
			return errors.New(validationMessage(err))
		}
		return s.applyView(ctx, domain.ViewState{
			Center: domain.GeoPoint{Lat: m.Center.Lat, Lon: m.Center.Lon},
			Zoom:   m.Zoom,
			Width:  m.Width,
			Height: m.Height,
		})

	case "pointermove":
		var m pointerMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return errors.New("invalid pointermove message")
		}
		if err := validate.Struct(m); err != nil {
			return errors.New(validationMessage(err))
		}
		s.pointerMove(domain.Pixel{X: *m.X, Y: *m.Y})
		return nil

	default:
		return fmt.Errorf("%w: %q", errUnknownMessage, env.Type)
	}
}

func (s *Session) applyView(ctx context.Context, v domain.ViewState) error {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanSessionView)
	defer span.End()
	span.SetAttributes(attribute.Float64("zoom", v.Zoom))

	if err := s.surface.SetView(v); err != nil {
		return err
	}
	s.view.OnViewChange()
	return nil
}

func (s *Session) pointerMove(px domain.Pixel) {
	st := s.view.OnPointerMove(domain.PointerEvent{
		Pixel:      px,
		Coordinate: s.surface.ToCoordinate(px),
	})
	if st.Hovering() {
		metrics.HoverEvents.WithLabelValues("hit").Inc()
	} else {
		metrics.HoverEvents.WithLabelValues("miss").Inc()
	}
}

// Close tears the session down. A load still in flight is discarded.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.view.Teardown()
	metrics.ActiveSessions.Dec()
	s.log.Debug("session closed")
}

// Show implements ports.TooltipSurface.
func (s *Session) Show(text string, at domain.ProjectedCoordinate) {
	ll := geospatial.ToLonLat(at)
	placement := usecases.DefaultTooltipPlacement
	_ = s.send(tooltipOut{
		Type:       "tooltip",
		Visible:    true,
		Text:       text,
		Coordinate: &[2]float64{at.X, at.Y},
		LonLat:     &[2]float64{ll.Lon, ll.Lat},
		Placement:  &placement,
	})
}

// Hide implements ports.TooltipSurface.
func (s *Session) Hide() {
	_ = s.send(tooltipOut{Type: "tooltip", Visible: false})
}

func (s *Session) sendTiles(view domain.ViewState) {
	_ = s.send(tilesOut{Type: "tiles", URL: s.tiles, View: view})
}

func (s *Session) sendLayer(view domain.ViewState, layer []surface.RenderedCluster) {
	data, err := json.Marshal(geojson.Encode(geojson.FromRendered(layer)))
	if err != nil {
		s.log.Error("encoding layer failed", "error", err)
		return
	}
	_ = s.send(layerOut{Type: "layer", Data: data})
}

func observeLoad(r usecases.LoadResult) {
	if r.Discarded {
		return
	}
	metrics.PipelineDuration.WithLabelValues("load").Observe(r.Duration.Seconds())
	if r.Err != nil {
		return
	}
	metrics.RecordsParsed.WithLabelValues("record").Add(float64(r.Stats.Records))
	metrics.RecordsParsed.WithLabelValues("skipped").Add(float64(r.Stats.Skipped))
	metrics.RecordsParsed.WithLabelValues("invalid_rate").Add(float64(r.Stats.InvalidRates))
}

func observeRecluster(clusters int, took time.Duration) {
	metrics.ClustersPerPass.Observe(float64(clusters))
	metrics.PipelineDuration.WithLabelValues("cluster").Observe(took.Seconds())
}
