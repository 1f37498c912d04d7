package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
)

// TooltipPlacement describes where the tooltip sits relative to its coordinate.
type TooltipPlacement struct {
	Positioning string     `json:"positioning"`
	Offset      [2]float64 `json:"offset"`
}

// DefaultTooltipPlacement centers the label above the pointer.
var DefaultTooltipPlacement = TooltipPlacement{Positioning: "bottom-center", Offset: [2]float64{0, -15}}

// HoverResolver turns pointer moves into tooltip updates. It remembers only
// the state produced by the latest event.
type HoverResolver struct {
	hits    ports.HitTester
	tooltip ports.TooltipSurface
	state   domain.HoverState
}

// NewHoverResolver creates an idle HoverResolver.
func NewHoverResolver(hits ports.HitTester, tooltip ports.TooltipSurface) *HoverResolver {
	return &HoverResolver{hits: hits, tooltip: tooltip}
}

// OnPointerMove hit-tests the event pixel. A hit shows the cluster's average
// rate at the event coordinate; a miss hides the tooltip.
func (h *HoverResolver) OnPointerMove(ev domain.PointerEvent) domain.HoverState {
	c, ok := h.hits.HitTest(ev.Pixel)
	if !ok || c.Size() == 0 {
		h.Reset()
		return h.state
	}

	agg := Aggregate(c)
	text := HoverText(agg)
	h.tooltip.Show(text, ev.Coordinate)
	h.state = domain.HoverState{
		Phase:     domain.HoverActive,
		Cluster:   c,
		Aggregate: agg,
		Text:      text,
		Position:  ev.Coordinate,
	}
	return h.state
}

// Reset hides the tooltip and returns to idle.
func (h *HoverResolver) Reset() {
	h.tooltip.Hide()
	h.state = domain.HoverState{Phase: domain.HoverIdle}
}

// State returns the currently displayed state.
func (h *HoverResolver) State() domain.HoverState {
	return h.state
}

// HoverText formats the tooltip label for an aggregate.
func HoverText(agg domain.ClusterAggregate) string {
	return fmt.Sprintf("Dropout Rate: %d%%", RoundHalfUp(agg.AverageRate))
}

// RoundHalfUp rounds to the nearest integer, halves towards +Inf.
func RoundHalfUp(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}
