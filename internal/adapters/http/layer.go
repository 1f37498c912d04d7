package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	orbgeojson "github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/dropmap/internal/adapters/geojson"
	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
	"github.com/samirrijal/dropmap/internal/pkg/telemetry"
)

// layerQuery is the view for GET /v1/layer. Missing parameters keep the
// configured defaults.
type layerQuery struct {
	Lat      float64 `query:"lat" validate:"gte=-85.06,lte=85.06"`
	Lon      float64 `query:"lon" validate:"gte=-180,lte=180"`
	Zoom     float64 `query:"zoom" validate:"gte=0,lte=28"`
	Width    int     `query:"width" validate:"gte=1,lte=16384"`
	Height   int     `query:"height" validate:"gte=1,lte=16384"`
	Distance float64 `query:"distance" validate:"gte=0,lte=1000"`
}

func (q layerQuery) view() domain.ViewState {
	return domain.ViewState{
		Center: domain.GeoPoint{Lat: q.Lat, Lon: q.Lon},
		Zoom:   q.Zoom,
		Width:  q.Width,
		Height: q.Height,
	}
}

// LayerHandler returns the clustered, styled layer for a view as GeoJSON.
func LayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Snapshot == nil || !deps.Snapshot.Loaded() {
			return errUnavailable(c, "records are not loaded yet")
		}

		q := layerQuery{
			Lat:      deps.View.Center.Lat,
			Lon:      deps.View.Center.Lon,
			Zoom:     deps.View.Zoom,
			Width:    deps.View.Width,
			Height:   deps.View.Height,
			Distance: deps.Distance,
		}
		if err := c.QueryParser(&q); err != nil {
			return errBadRequest(c, "invalid query parameters")
		}
		if err := validate.Struct(q); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		vp, err := geospatial.NewViewport(q.view())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		_, span := telemetry.Tracer().Start(c.UserContext(), telemetry.SpanLayerRequest)
		defer span.End()

		styler := deps.styler()
		layer := deps.Snapshot.Layer(vp, q.Distance, &styler)
		span.SetAttributes(
			attribute.Float64("zoom", q.Zoom),
			attribute.Int("clusters", len(layer)),
		)

		fc := geojson.Encode(geojson.FromStyled(layer))
		fc.BBox = orbgeojson.NewBBox(vp.Bounds())

		body, err := json.Marshal(fc)
		if err != nil {
			return errInternal(c, "encoding layer failed")
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	}
}
