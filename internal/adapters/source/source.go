package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/pkg/config"
	"github.com/samirrijal/dropmap/internal/pkg/metrics"
)

// observed counts fetches by outcome.
type observed struct {
	kind  string
	inner ports.RecordSource
}

func (o observed) Fetch(ctx context.Context) (string, error) {
	raw, err := o.inner.Fetch(ctx)
	metrics.SourceFetches.WithLabelValues(o.kind, metrics.Outcome(err)).Inc()
	return raw, err
}

// New builds the record source described by cfg. A non-nil cache wraps it
// in a CachedSource.
func New(cfg config.SourceConfig, cache ports.CacheService) (ports.RecordSource, error) {
	var (
		src  ports.RecordSource
		kind string
	)
	switch {
	case cfg.Path != "":
		src, kind = NewFileSource(cfg.Path), "file"
	case cfg.URL != "":
		client := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
		src, kind = NewHTTPSource(cfg.URL, client, BreakerSettings{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
			Timeout:          time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}), "http"
	default:
		return nil, ErrNotConfigured
	}
	src = observed{kind: kind, inner: src}

	if cache == nil {
		return src, nil
	}
	cached, err := NewCachedSource(src, cache, cfg.CacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("cached source: %w", err)
	}
	return cached, nil
}
