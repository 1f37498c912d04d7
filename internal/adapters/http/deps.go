package http

import (
	"context"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/core/usecases"
)

// Pinger is implemented by backing services with a cheap liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connector reports the state of a long-lived connection.
type Connector interface {
	Connected() bool
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Snapshot *usecases.SnapshotService
	Source   ports.RecordSource // fetched once per render bridge session
	Cache    Pinger             // nil when caching is disabled
	Events   Connector          // reload notifications, nil when disabled
	Styler   usecases.Styler
	Distance float64
	View     domain.ViewState // initial view for sessions, defaults for /v1/layer
	TilesURL string
}

func (d *Dependencies) styler() usecases.Styler {
	if len(d.Styler.Buckets) == 0 {
		return usecases.DefaultStyler()
	}
	return d.Styler
}
