package geospatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"

	"github.com/samirrijal/dropmap/internal/core/domain"
)

var ErrInvalidView = errors.New("invalid view")

// Viewport maps projected coordinates to screen pixels for a fixed view.
// Pixel (0,0) is the top-left corner, y grows downwards.
type Viewport struct {
	view   domain.ViewState
	center r2.Point
	half   r2.Point
	res    float64
}

// NewViewport validates v and precomputes its screen transform.
func NewViewport(v domain.ViewState) (*Viewport, error) {
	if err := ValidateView(v); err != nil {
		return nil, err
	}
	c := Mercator{}.Project(v.Center.Lon, v.Center.Lat)
	return &Viewport{
		view:   v,
		center: r2.Point{X: c.X, Y: c.Y},
		half:   r2.Point{X: float64(v.Width) / 2, Y: float64(v.Height) / 2},
		res:    Resolution(v.Zoom),
	}, nil
}

// ValidateView checks that a view can be rendered.
func ValidateView(v domain.ViewState) error {
	switch {
	case math.IsNaN(v.Center.Lat) || v.Center.Lat < -90 || v.Center.Lat > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidView, v.Center.Lat)
	case math.IsNaN(v.Center.Lon) || v.Center.Lon < -180 || v.Center.Lon > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidView, v.Center.Lon)
	case math.IsNaN(v.Zoom) || v.Zoom < 0 || v.Zoom > MaxZoom:
		return fmt.Errorf("%w: zoom %v out of range", ErrInvalidView, v.Zoom)
	case v.Width <= 0 || v.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidView, v.Width, v.Height)
	}
	return nil
}

func (vp *Viewport) View() domain.ViewState { return vp.view }

// Resolution returns meters per pixel.
func (vp *Viewport) Resolution() float64 { return vp.res }

func (vp *Viewport) ToScreenPixel(p domain.ProjectedCoordinate) domain.Pixel {
	d := r2.Point{X: p.X, Y: p.Y}.Sub(vp.center).Mul(1 / vp.res)
	return domain.Pixel{X: vp.half.X + d.X, Y: vp.half.Y - d.Y}
}

// ToCoordinate is the inverse of ToScreenPixel.
func (vp *Viewport) ToCoordinate(px domain.Pixel) domain.ProjectedCoordinate {
	d := r2.Point{X: px.X - vp.half.X, Y: vp.half.Y - px.Y}.Mul(vp.res)
	c := vp.center.Add(d)
	return domain.ProjectedCoordinate{X: c.X, Y: c.Y}
}

// Bounds returns the lon/lat extent of the visible area.
func (vp *Viewport) Bounds() orb.Bound {
	tl := ToLonLat(vp.ToCoordinate(domain.Pixel{}))
	br := ToLonLat(vp.ToCoordinate(domain.Pixel{X: float64(vp.view.Width), Y: float64(vp.view.Height)}))
	return orb.Bound{
		Min: orb.Point{tl.Lon, br.Lat},
		Max: orb.Point{br.Lon, tl.Lat},
	}
}
