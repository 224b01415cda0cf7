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

	"github.com/samirrijal/lunchpick/internal/adapters/http"
	natsadapter "github.com/samirrijal/lunchpick/internal/adapters/nats"
	"github.com/samirrijal/lunchpick/internal/adapters/provider"
	"github.com/samirrijal/lunchpick/internal/adapters/valkey"
	"github.com/samirrijal/lunchpick/internal/core/ports"
	"github.com/samirrijal/lunchpick/internal/pkg/config"
	"github.com/samirrijal/lunchpick/internal/pkg/logging"
	"github.com/samirrijal/lunchpick/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("lunchpick-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer telemetry.Shutdown(shutdown)
		}
	}

	// Valkey-backed rate limiter storage
	var store *valkey.Store
	if cfg.Valkey.Enabled {
		store, err = valkey.New(cfg.Valkey.Addr, valkey.DefaultPrefix)
		if err != nil {
			slog.Warn("valkey unavailable, rate limiting in memory", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	// NATS recommendation events
	var events ports.EventPublisher
	var pub *natsadapter.Publisher
	if cfg.NATS.Enabled {
		pub, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
			pub = nil
		} else {
			defer pub.Close()
			events = pub
		}
	}

	// Providers and use case
	providers := provider.FromConfig(cfg)
	recommender, err := providers.Recommender(cfg, events)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}
	slog.Info("providers ready", "search", cfg.Provider.Search, "geocoder", cfg.Provider.Geocoder)

	deps := &http.Dependencies{
		Recommender:    recommender,
		Providers:      providers,
		Store:          store,
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Lunchpick API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
