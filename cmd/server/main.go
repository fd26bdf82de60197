package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aryan0dhankhar/staffdir/internal/featureflags"
	"github.com/aryan0dhankhar/staffdir/internal/handler"
	"github.com/aryan0dhankhar/staffdir/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/staffdir/internal/observability/metrics"
	"github.com/aryan0dhankhar/staffdir/internal/observability/tracing"
	"github.com/aryan0dhankhar/staffdir/internal/repository"
	"github.com/aryan0dhankhar/staffdir/internal/security/audit"
	"github.com/aryan0dhankhar/staffdir/internal/security/middleware"
	"github.com/aryan0dhankhar/staffdir/internal/security/ratelimit"
	"github.com/aryan0dhankhar/staffdir/internal/service"
	"github.com/aryan0dhankhar/staffdir/internal/worker"
	"github.com/aryan0dhankhar/staffdir/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting staffdir server",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.StoreBackend),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, cfg.Environment, cfg.StoreBackend)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	// 4. Open the record store
	store, closeStore, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	defer closeStore()

	// 5. Directory controller with its first load. A failed first load is
	// served as an error marker until a later load succeeds.
	directory := service.NewDirectory(store, log, cfg)
	if err := directory.Load(ctx, "startup"); err != nil {
		log.Warn("initial load failed", slog.String("error", err.Error()))
	}

	// 6. Handlers and routes
	employeesHandler := handler.NewEmployeesHandler(directory, log, cfg)
	filtersHandler := handler.NewFiltersHandler(directory, log)
	streamHandler := handler.NewStreamHandler(directory, log, cfg.CORSAllowedOrigins)
	healthHandler := handler.NewHealthHandler(directory, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/employees", employeesHandler.List)
	mux.HandleFunc("POST /api/employees", employeesHandler.Create)
	if featureflags.Enabled(featureflags.Editing) {
		mux.HandleFunc("PUT /api/employees/{id}", employeesHandler.Update)
		mux.HandleFunc("DELETE /api/employees/{id}", employeesHandler.Delete)
	}
	mux.Handle("GET /api/filters", filtersHandler)
	mux.Handle("GET /ws/employees", streamHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	// 7. Security and observability middleware
	rateLimiter := ratelimit.NewLimiter(cfg.WriteRateLimit, time.Minute)
	defer rateLimiter.Stop()
	auditLogger := audit.NewLogger(log)

	// Chain: request ID -> CORS -> audit -> write rate limit -> content type -> metrics -> mux
	rootHandler := middleware.RequestID(log)(
		middleware.CORS(cfg.CORSAllowedOrigins)(
			middleware.AuditMutations(auditLogger)(
				middleware.RateLimitWrites(rateLimiter, auditLogger, log)(
					middleware.ValidateJSONContentType("/api/employees", log)(
						metrics.HTTPMetricsMiddleware(mux),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "staffdir"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 8. Background reloads and the server share one lifetime
	g, gctx := errgroup.WithContext(ctx)

	refresher := worker.NewRefresher(directory, log, cfg.RefreshInterval)
	g.Go(func() error {
		refresher.Start(gctx)
		return nil
	})

	if fileStore, ok := store.(*repository.FileStore); ok {
		g.Go(func() error {
			err := fileStore.Watch(gctx, func() {
				if err := directory.Load(gctx, "watch"); err != nil {
					log.Warn("reload after file change failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				// Live reload is optional.
				log.Warn("file watch unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("server starting",
			slog.Int("port", cfg.ServerPort),
			slog.Bool("editing", featureflags.Enabled(featureflags.Editing)),
			slog.Duration("refresh_interval", cfg.RefreshInterval),
			slog.Int("write_rate_limit", cfg.WriteRateLimit),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
