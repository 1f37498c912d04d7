package usecases

import (
	"math"
	"strconv"

	"github.com/samirrijal/dropmap/internal/core/domain"
)

// RateBucket colors clusters whose average rate is below Below.
type RateBucket struct {
	Below float64
	Fill  domain.RGBA
}

// Styler maps a cluster to its visual encoding.
type Styler struct {
	BaseRadius      float64
	RadiusPerMember float64
	Buckets         []RateBucket // checked in order, first match wins
	Overflow        domain.RGBA  // fill when no bucket matches
	Border          domain.RGBA
	BorderWidth     float64
	LabelColor      domain.RGBA
}

// DefaultStyler returns the standard dropout-rate palette.
func DefaultStyler() Styler {
	return Styler{
		BaseRadius:      20,
		RadiusPerMember: 5,
		Buckets: []RateBucket{
			{Below: 10, Fill: domain.RGBA{R: 255, G: 107, B: 107, A: 0.27}},
			{Below: 20, Fill: domain.RGBA{R: 91, G: 192, B: 235, A: 0.24}},
			{Below: 30, Fill: domain.RGBA{R: 75, G: 144, B: 51, A: 0.20}},
			{Below: 40, Fill: domain.RGBA{R: 181, G: 161, B: 57, A: 0.28}},
			{Below: 50, Fill: domain.RGBA{R: 225, G: 122, B: 64, A: 0.68}},
		},
		Overflow:    domain.RGBA{R: 225, G: 64, B: 64, A: 0.68},
		Border:      domain.RGBA{A: 1},
		BorderWidth: 0.2,
		LabelColor:  domain.RGBA{R: 255, G: 255, B: 255, A: 1},
	}
}

var defaultStyler = DefaultStyler()

// Aggregate computes member count and mean rate. Invalid rates count as 0.
func Aggregate(c *domain.Cluster) domain.ClusterAggregate {
	n := c.Size()
	if n == 0 {
		return domain.ClusterAggregate{}
	}
	var sum float64
	for _, f := range c.Members {
		sum += float64(f.Attributes.Rate.OrZero())
	}
	return domain.ClusterAggregate{Count: n, AverageRate: sum / float64(n)}
}

// Style styles a cluster with the default palette.
func Style(c *domain.Cluster) domain.StyleSpec {
	return defaultStyler.Style(c)
}

// Style computes the cluster's style. It is total: empty clusters style as
// count 0 in the lowest bucket.
func (s Styler) Style(c *domain.Cluster) domain.StyleSpec {
	agg := Aggregate(c)
	return domain.StyleSpec{
		RadiusPixels: s.BaseRadius + s.RadiusPerMember*float64(agg.Count),
		FillColor:    s.FillFor(agg.AverageRate),
		BorderColor:  s.Border,
		BorderWidth:  s.BorderWidth,
		LabelText:    strconv.Itoa(agg.Count),
		LabelColor:   s.LabelColor,
	}
}

// FillFor returns the bucket color for an average rate.
func (s Styler) FillFor(avg float64) domain.RGBA {
	if math.IsNaN(avg) {
		avg = 0
	}
	for _, b := range s.Buckets {
		if avg < b.Below {
			return b.Fill
		}
	}
	return s.Overflow
}
