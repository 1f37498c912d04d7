package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Rate is an optional integer rate. A zero Rate is invalid ("no rate"),
// which is distinct from a valid rate of 0.
type Rate struct {
	Value int
	Valid bool
}

// RateOf returns a valid rate.
func RateOf(v int) Rate { return Rate{Value: v, Valid: true} }

// InvalidRate returns the "missing or unparsable" rate.
func InvalidRate() Rate { return Rate{} }

// OrZero returns the rate value, or 0 when the rate is invalid.
func (r Rate) OrZero() int {
	if !r.Valid {
		return 0
	}
	return r.Value
}

func (r Rate) String() string {
	if !r.Valid {
		return "n/a"
	}
	return strconv.Itoa(r.Value)
}

// MarshalJSON encodes an invalid rate as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as an invalid rate.
func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = InvalidRate()
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = RateOf(v)
	return nil
}

// PointRecord is one parsed row of the record source.
type PointRecord struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Country  string   `json:"country"`
	Rate     Rate     `json:"rate"`
}

// Attributes are the record fields a feature carries.
type Attributes struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Rate    Rate   `json:"rate"`
}

// Feature is a positioned, attributed record. Position is always finite.
type Feature struct {
	Position   ProjectedCoordinate `json:"position"`
	Attributes Attributes          `json:"attributes"`
}

// Cluster groups features that are close on screen. Members point into the
// feature snapshot the cluster was computed from.
type Cluster struct {
	Members []*Feature          `json:"members"`
	Anchor  ProjectedCoordinate `json:"anchor"`
}

// Size returns the number of members.
func (c *Cluster) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Members)
}

// ClusterAggregate is derived from a cluster's members on demand.
type ClusterAggregate struct {
	Count       int     `json:"count"`
	AverageRate float64 `json:"average_rate"`
}

// RGBA is a CSS-style color with 0-255 channels and a 0-1 alpha.
type RGBA struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// StyleSpec is the visual encoding of one cluster.
type StyleSpec struct {
	RadiusPixels float64 `json:"radius_px"`
	FillColor    RGBA    `json:"fill_color"`
	BorderColor  RGBA    `json:"border_color"`
	BorderWidth  float64 `json:"border_width"`
	LabelText    string  `json:"label_text"`
	LabelColor   RGBA    `json:"label_color"`
}

// PointerEvent is a pointer move reported by the render surface.
type PointerEvent struct {
	Pixel      Pixel               `json:"pixel"`
	Coordinate ProjectedCoordinate `json:"coordinate"`
}

// HoverPhase is the hover resolver's state.
type HoverPhase int

const (
	HoverIdle HoverPhase = iota
	HoverActive
)

func (p HoverPhase) String() string {
	if p == HoverActive {
		return "hovering"
	}
	return "idle"
}

// HoverState is the currently displayed tooltip state.
type HoverState struct {
	Phase     HoverPhase          `json:"phase"`
	Cluster   *Cluster            `json:"-"`
	Aggregate ClusterAggregate    `json:"aggregate"`
	Text      string              `json:"text,omitempty"`
	Position  ProjectedCoordinate `json:"position"`
}

// Hovering reports whether a tooltip is shown.
func (s HoverState) Hovering() bool { return s.Phase == HoverActive }
