package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	cacheiface "github.com/mohammed-shakir/eulerian-streets/internal/cache"
	"github.com/mohammed-shakir/eulerian-streets/internal/cache/keys"
	"github.com/mohammed-shakir/eulerian-streets/internal/cache/redisstore"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/router"
	mylog "github.com/mohammed-shakir/eulerian-streets/internal/logger"
	"github.com/mohammed-shakir/eulerian-streets/internal/scenarios"
)

// Engine serves finished trail payloads from Redis and computes them on a
// miss. Cache failures degrade to a plain computation.
type Engine struct {
	logger    *slog.Logger
	runner    scenarios.Runner
	res       int
	store     cacheiface.Interface
	ttl       time.Duration
	opTimeout time.Duration
}

func init() {
	scenarios.Register("cache", newCache)
}

// creates cache scenario trail handler
func newCache(cfg config.Config, logger *slog.Logger, runner scenarios.Runner) (router.TrailHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return New(logger, runner, rc, cfg.H3Res, cfg.CacheTTL, cfg.CacheOpTimeout), nil
}

func New(logger *slog.Logger, runner scenarios.Runner, store cacheiface.Interface, res int, ttl, opTimeout time.Duration) *Engine {
	return &Engine{
		logger:    logger,
		runner:    runner,
		res:       res,
		store:     store,
		ttl:       ttl,
		opTimeout: opTimeout,
	}
}

// returns context with timeout if set; detached from the request so a
// client hangup does not abort the cache write
func (e *Engine) withTimeout() (context.Context, context.CancelFunc) {
	if e.opTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), e.opTimeout)
}

func (e *Engine) HandleTrail(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.TrailRequest) {
	ctx = mylog.WithNetwork(mylog.WithQuery(ctx, q.Query.Name()), q.Network)
	key := keys.Trail(q.Query, q.Network, q.Mode, q.Start, string(q.Format))

	cctx, cancel := e.withTimeout()
	raw, ok, err := e.store.Get(cctx, key)
	cancel()
	if err != nil {
		e.logger.WarnContext(ctx, "cache get failed; computing", "key", key, "err", err)
	}
	if ok {
		body, stats, err := unmarshalEntry(raw)
		if err == nil {
			e.logger.DebugContext(ctx, "cache hit", "key", key, "bytes", len(body))
			scenarios.WriteTrail(w, q.Format, body, &stats, "HIT")
			return
		}
		e.logger.WarnContext(ctx, "cache entry unreadable; computing", "key", key, "err", err)
	}

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

	if raw, err := marshalEntry(body, res.Stats); err != nil {
		e.logger.WarnContext(ctx, "cache entry encode failed", "key", key, "err", err)
	} else {
		sctx, cancel := e.withTimeout()
		if err := e.store.Set(sctx, key, raw, e.ttl); err != nil {
			e.logger.WarnContext(ctx, "cache set failed", "key", key, "err", err)
		}
		cancel()
	}

	scenarios.WriteTrail(w, q.Format, body, &res.Stats, "MISS")
}

func (e *Engine) Name() string { return "redis" }

// Check reports whether the payload store is reachable.
func (e *Engine) Check(ctx context.Context) error {
	if c, ok := e.store.(interface{ Check(context.Context) error }); ok {
		return c.Check(ctx)
	}
	return nil
}
