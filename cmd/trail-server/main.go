package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/health"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/httpclient"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/server"
	"github.com/mohammed-shakir/eulerian-streets/internal/geocode"
	"github.com/mohammed-shakir/eulerian-streets/internal/graphcache"
	"github.com/mohammed-shakir/eulerian-streets/internal/logger"
	h3mapper "github.com/mohammed-shakir/eulerian-streets/internal/mapper/h3"
	"github.com/mohammed-shakir/eulerian-streets/internal/metrics"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
	"github.com/mohammed-shakir/eulerian-streets/internal/scenarios"
	_ "github.com/mohammed-shakir/eulerian-streets/internal/scenarios/baseline"
	_ "github.com/mohammed-shakir/eulerian-streets/internal/scenarios/cache"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	// overriding engine and listen address via flags
	scenarioFlag := flag.String("scenario", "", "trail engine: baseline or cache")
	addrFlag := flag.String("addr", "", "listen address")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	scenario := strings.TrimSpace(*scenarioFlag)
	if scenario == "" {
		scenario = "baseline"
		if cfg.CacheEnabled {
			scenario = "cache"
		}
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "trail-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	p := metrics.Init(metrics.Config{
		Enabled: cfg.MetricsEnabled,
		Path:    "/metrics",
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	observability.Init(p.Registerer(), cfg.MetricsEnabled)

	appLog.Info("starting trail server",
		"addr", cfg.Addr,
		"version", Version,
		"overpass", cfg.OverpassURL,
		"nominatim", cfg.NominatimURL,
		"scenario", scenario)

	httpClient := httpclient.NewOutbound(cfg.UpstreamTimeout)

	overpass, err := osmgraph.NewOverpass(appLog, httpClient, cfg.OverpassURL, cfg.UserAgent)
	if err != nil {
		appLog.Error("failed to initialize overpass client", "err", err)
		return 1
	}
	geocoder, err := geocode.New(appLog, httpClient, cfg.NominatimURL, cfg.UserAgent)
	if err != nil {
		appLog.Error("failed to initialize geocoder", "err", err)
		return 1
	}

	graphs := graphcache.NewSource(
		pipeline.NewUpstream(overpass, geocoder, cfg.RetainAll),
		graphcache.New(cfg.GraphCacheSize),
	)
	runner := pipeline.New(appLog, graphs, geocoder, h3mapper.New())

	handler, err := scenarios.New(scenario, cfg, appLog, runner)
	if err != nil {
		appLog.Error("scenario setup failed", "err", err)
		return 1
	}

	opts := server.Options{Metrics: p.Handler()}
	if c, ok := handler.(health.Checker); ok {
		opts.Checks = append(opts.Checks, c)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, appLog, handler, opts); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
