package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/health"
	middleware "github.com/mohammed-shakir/eulerian-streets/internal/core/middleware"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/router"
)

// Options carries the optional pieces of the HTTP surface.
type Options struct {
	// Metrics serves /metrics; nil uses the default Prometheus registry.
	Metrics http.Handler
	Checks  []health.Checker
}

// NewRouter builds the chi router with all routes and middlewares.
func NewRouter(cfg config.Config, logger *slog.Logger, handler router.TrailHandler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	metrics := opts.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, opts.Checks...))
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Get("/trail", router.HandleTrail(logger, cfg, handler))
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler router.TrailHandler, opts Options) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger, handler, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a trail may wait on a full Overpass download
		WriteTimeout: cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
