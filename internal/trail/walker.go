package trail

import (
	"context"
	"log/slog"
	"time"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
)

// Build walks hops in order starting from origin and returns the trail.
//
// Each hop appends its whole geometry, both ends included, oriented so that
// its first point equals the current tail. The junction point therefore
// appears twice at every seam. On error the trail is discarded.
func Build(origin orb.Point, hops []model.Hop, cat *Catalog) (model.Trail, error) {
	out := make(model.Trail, 1, 1+2*len(hops))
	out[0] = origin

	for i, h := range hops {
		g, err := cat.Next(h.U, h.V)
		if err != nil {
			return nil, err
		}
		if len(g) == 0 {
			return nil, &EdgeNotFoundError{U: h.U, V: h.V}
		}

		tail := out[len(out)-1]
		first, last := g[0], g[len(g)-1]
		switch {
		case tail.Equal(first):
			out = append(out, g...)
		case tail.Equal(last):
			for j := len(g) - 1; j >= 0; j-- {
				out = append(out, g[j])
			}
		default:
			return nil, &OrientationError{Index: i, Hop: h, Tail: tail, First: first, Last: last}
		}
	}
	return out, nil
}

// Walker stitches a hop sequence into one continuous trail of points.
type Walker struct {
	logger *slog.Logger
}

// NewWalker returns a Walker logging to logger, or slog.Default when nil.
func NewWalker(logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{logger: logger}
}

// Walk is Build with logging and metrics.
func (w *Walker) Walk(ctx context.Context, origin orb.Point, hops []model.Hop, cat *Catalog) (model.Trail, error) {
	start := time.Now()
	t, err := Build(origin, hops, cat)
	dur := time.Since(start)
	if err != nil {
		observability.ObserveTrailBuild("error", len(hops), 0, dur.Seconds())
		w.logger.ErrorContext(ctx, "trail build failed",
			"hops", len(hops),
			"err", err)
		return nil, err
	}

	observability.ObserveTrailBuild("ok", len(hops), len(t), dur.Seconds())
	observability.AddGeometryReuses(cat.Reuses())
	w.logger.DebugContext(ctx, "trail built",
		"hops", len(hops),
		"points", len(t),
		"reused", cat.Reuses(),
		"duration", dur.String())
	return t, nil
}
