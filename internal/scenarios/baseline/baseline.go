package baseline

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/router"
	mylog "github.com/mohammed-shakir/eulerian-streets/internal/logger"
	"github.com/mohammed-shakir/eulerian-streets/internal/scenarios"
)

// Engine computes every trail from scratch.
type Engine struct {
	logger *slog.Logger
	runner scenarios.Runner
	res    int
}

func init() {
	scenarios.Register("baseline", newBaseline)
}

func newBaseline(cfg config.Config, logger *slog.Logger, runner scenarios.Runner) (router.TrailHandler, error) {
	return &Engine{
		logger: logger,
		runner: runner,
		res:    cfg.H3Res,
	}, nil
}

func (e *Engine) HandleTrail(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.TrailRequest) {
	ctx = mylog.WithNetwork(mylog.WithQuery(ctx, q.Query.Name()), q.Network)

	res, err := e.runner.Run(ctx, scenarios.PipelineRequest(q, e.res))
	if err != nil {
		router.WriteError(w, r.WithContext(ctx), e.logger, err)
		return
	}
	body, err := scenarios.Encode(q.Format, res)
	if err != nil {
		e.logger.ErrorContext(ctx, "encode trail failed", "err", err)
		http.Error(w, "encode error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	scenarios.WriteTrail(w, q.Format, body, &res.Stats, "")
}
