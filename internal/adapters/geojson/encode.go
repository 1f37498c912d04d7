// Package geojson renders clustered layers as GeoJSON feature collections.
package geojson

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/dropmap/internal/adapters/surface"
	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/usecases"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
)

// clusterNamespace scopes cluster ids so equal layers get equal ids.
var clusterNamespace = uuid.MustParse("5b0f6f2e-8f43-4c36-9d2e-5d7c1c7e4a10")

// Entry is one cluster ready to encode.
type Entry struct {
	Cluster   *domain.Cluster
	Aggregate domain.ClusterAggregate
	Style     domain.StyleSpec
	Pixel     *domain.Pixel
}

func FromStyled(layer []usecases.StyledCluster) []Entry {
	out := make([]Entry, len(layer))
	for i := range layer {
		out[i] = Entry{Cluster: &layer[i].Cluster, Aggregate: layer[i].Aggregate, Style: layer[i].Style}
	}
	return out
}

func FromRendered(layer []surface.RenderedCluster) []Entry {
	out := make([]Entry, len(layer))
	for i, rc := range layer {
		px := rc.Pixel
		out[i] = Entry{Cluster: rc.Cluster, Aggregate: usecases.Aggregate(rc.Cluster), Style: rc.Style, Pixel: &px}
	}
	return out
}

// Encode builds a FeatureCollection with one point feature per cluster,
// placed at the cluster anchor in lon/lat.
func Encode(entries []Entry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range entries {
		fc.Append(encodeEntry(e))
	}
	return fc
}

func encodeEntry(e Entry) *geojson.Feature {
	anchor := geospatial.ToLonLat(e.Cluster.Anchor)
	f := geojson.NewFeature(orb.Point{anchor.Lon, anchor.Lat})
	f.ID = ClusterID(e.Cluster).String()

	f.Properties["cluster"] = e.Aggregate.Count > 1
	f.Properties["point_count"] = e.Aggregate.Count
	f.Properties["average_rate"] = finite(e.Aggregate.AverageRate)
	f.Properties["hover_text"] = usecases.HoverText(e.Aggregate)
	f.Properties["radius"] = e.Style.RadiusPixels
	f.Properties["fill"] = e.Style.FillColor.String()
	f.Properties["stroke"] = e.Style.BorderColor.String()
	f.Properties["stroke_width"] = e.Style.BorderWidth
	f.Properties["label"] = e.Style.LabelText
	f.Properties["text_color"] = e.Style.LabelColor.String()
	f.Properties["x"] = e.Cluster.Anchor.X
	f.Properties["y"] = e.Cluster.Anchor.Y
	if e.Pixel != nil && e.Pixel.IsFinite() {
		f.Properties["px"] = e.Pixel.X
		f.Properties["py"] = e.Pixel.Y
	}
	if e.Aggregate.Count == 1 {
		a := e.Cluster.Members[0].Attributes
		f.Properties["name"] = a.Name
		f.Properties["country"] = a.Country
		f.Properties["rate"] = a.Rate
	}
	return f
}

// ClusterID derives a stable id from the cluster's anchor and size.
func ClusterID(c *domain.Cluster) uuid.UUID {
	key := fmt.Sprintf("%.6f,%.6f,%d", c.Anchor.X, c.Anchor.Y, c.Size())
	return uuid.NewSHA1(clusterNamespace, []byte(key))
}

// json cannot carry NaN or Inf
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
