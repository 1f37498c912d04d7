package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProjectedCoordinate is a position in the render surface's map units
// (Web Mercator metres).
type ProjectedCoordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsFinite reports whether both components are finite numbers.
func (p ProjectedCoordinate) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Pixel is an on-screen position at the current view.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsFinite reports whether both components are finite numbers.
func (p Pixel) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// ViewState is the render surface's current view.
type ViewState struct {
	Center GeoPoint `json:"center"`
	Zoom   float64  `json:"zoom"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
