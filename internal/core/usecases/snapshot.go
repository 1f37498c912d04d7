package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/pkg/telemetry"
)

// StyledCluster pairs a cluster with the style and aggregate it renders with.
type StyledCluster struct {
	Cluster   domain.Cluster
	Aggregate domain.ClusterAggregate
	Style     domain.StyleSpec
}

// SnapshotService loads the record set once and renders styled cluster
// layers for arbitrary views without a live surface.
type SnapshotService struct {
	source ports.RecordSource
	proj   ports.Projector

	mu       sync.RWMutex
	features []domain.Feature
	stats    ParseStats
	loaded   bool
	started  uint64 // generation handed to the most recent Load
	applied  uint64 // generation of the features in place
}

func NewSnapshotService(source ports.RecordSource, proj ports.Projector) *SnapshotService {
	return &SnapshotService{source: source, proj: proj}
}

// Load fetches and parses the record set, replacing any previous load. A
// load that finishes after a later-started one has been applied is dropped.
func (s *SnapshotService) Load(ctx context.Context) (ParseStats, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSnapshotLoad)
	defer span.End()

	s.mu.Lock()
	s.started++
	gen := s.started
	s.mu.Unlock()

	raw, err := s.source.Fetch(ctx)
	if err != nil {
		return ParseStats{}, fmt.Errorf("fetching records: %w", err)
	}
	records, stats := ParseWithStats(strings.NewReader(raw))
	features := BuildFeatures(records, s.proj)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.applied {
		slog.Debug("dropping superseded record load", "generation", gen, "applied", s.applied)
		return *stats, nil
	}
	s.features = features
	s.stats = *stats
	s.loaded = true
	s.applied = gen
	return *stats, nil
}

// Reload drops any cached copy held by the source and loads again. On
// failure the previous features stay in place.
func (s *SnapshotService) Reload(ctx context.Context) (ParseStats, error) {
	if inv, ok := s.source.(ports.Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			slog.Warn("invalidating cached records failed", "error", err)
		}
	}
	return s.Load(ctx)
}

// Loaded reports whether a load has succeeded.
func (s *SnapshotService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Features returns a copy of the loaded features.
func (s *SnapshotService) Features() []domain.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Feature, len(s.features))
	copy(out, s.features)
	return out
}

func (s *SnapshotService) Stats() ParseStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Layer clusters the loaded features for the given screen mapping and
// styles each cluster. A nil styler uses DefaultStyler.
func (s *SnapshotService) Layer(screen ports.ScreenMapper, distancePx float64, styler *Styler) []StyledCluster {
	if styler == nil {
		def := DefaultStyler()
		styler = &def
	}
	features := s.Features()
	clusters := ClusterFeatures(features, screen, distancePx)

	out := make([]StyledCluster, 0, len(clusters))
	for _, c := range clusters {
		c := c
		out = append(out, StyledCluster{
			Cluster:   c,
			Aggregate: Aggregate(&c),
			Style:     styler.Style(&c),
		})
	}
	return out
}
