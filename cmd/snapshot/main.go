// Command snapshot renders one clustered layer for a fixed view and prints it
// as GeoJSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/samirrijal/dropmap/internal/adapters/geojson"
	"github.com/samirrijal/dropmap/internal/adapters/source"
	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/usecases"
	"github.com/samirrijal/dropmap/internal/pkg/config"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
	"github.com/samirrijal/dropmap/internal/pkg/logging"
)

func main() {
	var (
		file     = flag.String("file", "", "path to the records CSV")
		url      = flag.String("url", "", "URL of the records CSV (ignored when -file is set)")
		lat      = flag.Float64("lat", config.DefaultCenterLat, "view center latitude")
		lon      = flag.Float64("lon", config.DefaultCenterLon, "view center longitude")
		zoom     = flag.Float64("zoom", config.DefaultZoom, "view zoom level")
		width    = flag.Int("width", 1024, "viewport width in pixels")
		height   = flag.Int("height", 768, "viewport height in pixels")
		distance = flag.Float64("distance", usecases.DefaultClusterDistance, "cluster distance in pixels")
		timeout  = flag.Duration("timeout", 30*time.Second, "fetch timeout")
		level    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logging.SetupStderr(*level, "text")

	vp, err := geospatial.NewViewport(domain.ViewState{
		Center: domain.GeoPoint{Lat: *lat, Lon: *lon},
		Zoom:   *zoom,
		Width:  *width,
		Height: *height,
	})
	if err != nil {
		slog.Error("invalid view", "error", err)
		os.Exit(2)
	}

	src, err := source.New(config.SourceConfig{
		Path:           *file,
		URL:            *url,
		TimeoutSeconds: int(timeout.Seconds()),
	}, nil)
	if err != nil {
		slog.Error("record source", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	snap := usecases.NewSnapshotService(src, geospatial.Mercator{})
	stats, err := snap.Load(ctx)
	if err != nil {
		slog.Error("load records", "error", err)
		os.Exit(1)
	}
	slog.Info("records loaded",
		"records", stats.Records,
		"skipped", stats.Skipped,
		"invalid_rates", stats.InvalidRates,
	)

	layer := snap.Layer(vp, *distance, nil)
	fc := geojson.Encode(geojson.FromStyled(layer))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		slog.Error("write geojson", "error", err)
		os.Exit(1)
	}
	slog.Info("layer written", "clusters", len(layer), "resolution", vp.Resolution())
}
