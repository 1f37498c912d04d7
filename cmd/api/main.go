package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/dropmap/internal/adapters/http"
	natsadapter "github.com/samirrijal/dropmap/internal/adapters/nats"
	"github.com/samirrijal/dropmap/internal/adapters/source"
	"github.com/samirrijal/dropmap/internal/adapters/valkey"
	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/ports"
	"github.com/samirrijal/dropmap/internal/core/usecases"
	"github.com/samirrijal/dropmap/internal/pkg/config"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
	"github.com/samirrijal/dropmap/internal/pkg/logging"
	"github.com/samirrijal/dropmap/internal/pkg/metrics"
	"github.com/samirrijal/dropmap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("dropmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		Styler:   usecases.DefaultStyler(),
		Distance: cfg.Cluster.DistancePx,
		View: domain.ViewState{
			Center: domain.GeoPoint{Lat: cfg.View.CenterLat, Lon: cfg.View.CenterLon},
			Zoom:   cfg.View.Zoom,
			Width:  cfg.View.Width,
			Height: cfg.View.Height,
		},
		TilesURL: cfg.Tiles.URL,
	}

	// Cache (optional)
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, records will not be cached", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}

	// Record source
	src, err := source.New(cfg.Source, cache)
	if err != nil {
		log.Fatalf("record source: %v", err)
	}
	if cs, ok := src.(*source.CachedSource); ok {
		defer cs.Close()
	}
	deps.Source = src

	// Shared snapshot for /v1/layer; sessions fetch on their own.
	deps.Snapshot = usecases.NewSnapshotService(src, geospatial.Mercator{})
	go func() {
		start := time.Now()
		stats, err := deps.Snapshot.Load(ctx)
		metrics.PipelineDuration.WithLabelValues("snapshot").Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("initial record load failed, /v1/layer unavailable until reload", "error", err)
			return
		}
		slog.Info("records loaded", "records", stats.Records, "skipped", stats.Skipped, "invalid_rates", stats.InvalidRates)
	}()

	// NATS reload notifications (optional)
	if cfg.NATS.URL != "" {
		listener, err := natsadapter.NewReloadListener(cfg.NATS.URL, cfg.NATS.ReloadSubject)
		if err != nil {
			slog.Warn("nats unavailable, reload notifications disabled", "error", err)
		} else {
			defer listener.Close()
			err := listener.Listen(ctx, func(ctx context.Context) error {
				_, err := deps.Snapshot.Reload(ctx)
				return err
			})
			if err != nil {
				slog.Warn("nats subscribe failed", "error", err)
			} else {
				deps.Events = listener
			}
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // requests carry query strings and small ws frames only
		AppName:      "Dropmap",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("render bridge starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
