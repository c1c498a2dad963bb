// Package scenarios selects how GET /trail requests are served: straight
// through the pipeline or behind the Redis payload cache.
package scenarios

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/router"
	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
)

// Runner is the part of pipeline.Runner the engines need.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Factory func(cfg config.Config, logger *slog.Logger, runner Runner) (router.TrailHandler, error)

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

func New(name string, cfg config.Config, logger *slog.Logger, runner Runner) (router.TrailHandler, error) {
	if f, ok := reg[name]; ok {
		return f(cfg, logger, runner)
	}
	if f, ok := reg["baseline"]; ok {
		logger.Warn("unknown scenario; falling back to baseline", "scenario", name)
		return f(cfg, logger, runner)
	}
	return nil, fmt.Errorf("no factory for scenario %q and no baseline registered", name)
}
