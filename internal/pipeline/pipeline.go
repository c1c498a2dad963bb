// Package pipeline turns a street network query into an Eulerian trail and
// writes the requested outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
	"github.com/mohammed-shakir/eulerian-streets/internal/euler"
	"github.com/mohammed-shakir/eulerian-streets/internal/export/animate"
	"github.com/mohammed-shakir/eulerian-streets/internal/export/geojsonout"
	"github.com/mohammed-shakir/eulerian-streets/internal/export/gpx"
	"github.com/mohammed-shakir/eulerian-streets/internal/locate"
	"github.com/mohammed-shakir/eulerian-streets/internal/mapper"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
	"github.com/mohammed-shakir/eulerian-streets/internal/trail"
)

const (
	StageValidate = "validate"
	StageLoad     = "load"
	StageStart    = "start"
	StageEuler    = "euler"
	StageWalk     = "walk"
	StageCoverage = "coverage"
	StageExport   = "export"
)

var ErrEmptyTrail = errors.New("graph produced no hops")

// StageError records which step of Run failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	observability.IncStageError(stage)
	return &StageError{Stage: stage, Err: err}
}

// GraphSource provides the street network for a query.
type GraphSource interface {
	Load(ctx context.Context, q model.Query, network string) (model.Graph, error)
}

// Outputs selects which files Run writes. Empty paths fall back to
// ./<query name>.<ext>.
type Outputs struct {
	GPX         bool
	GPXPath     string
	GeoJSON     bool
	GeoJSONPath string
	Animate     bool
	GIFPath     string
	Animation   animate.Options
}

type Request struct {
	Query   model.Query
	Network string
	Mode    model.Mode
	Start   model.Start
	// H3Res below zero skips coverage.
	H3Res   int
	Outputs Outputs
}

type Stats struct {
	Nodes   int
	Edges   int
	Added   int
	Hops    int
	Points  int
	Reuses  int
	LengthM float64
	H3Cells []string
}

func (s Stats) Summary() geojsonout.Summary {
	return geojsonout.Summary{LengthM: s.LengthM, Points: s.Points, Hops: s.Hops, H3Cells: s.H3Cells}
}

type Result struct {
	Trail model.Trail
	Hops  []model.Hop
	// Source is the first node of the trail.
	Source model.NodeID
	Stats  Stats
	Files  []string
	// Background holds the edge geometries of the loaded network.
	Background []orb.LineString
}

type Runner struct {
	logger   *slog.Logger
	graphs   GraphSource
	geocoder locate.Geocoder
	mapper   mapper.Interface
	walker   *trail.Walker
}

// New wires a Runner. geocoder and cells may be nil; address starts and H3
// coverage are then unavailable.
func New(logger *slog.Logger, graphs GraphSource, geocoder locate.Geocoder, cells mapper.Interface) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:   logger,
		graphs:   graphs,
		geocoder: geocoder,
		mapper:   cells,
		walker:   trail.NewWalker(logger),
	}
}

func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if err := validate(&req); err != nil {
		return Result{}, stageErr(StageValidate, err)
	}

	g, err := r.graphs.Load(ctx, req.Query, req.Network)
	if err != nil {
		return Result{}, stageErr(StageLoad, err)
	}

	var source *model.NodeID
	id, ok, err := locate.Resolve(ctx, req.Start, g.Nodes, r.geocoder)
	if err != nil {
		return Result{}, stageErr(StageStart, err)
	}
	if ok {
		source = &id
	}

	seq, err := euler.Sequence(g, req.Mode, source)
	if err != nil {
		return Result{}, stageErr(StageEuler, err)
	}
	if len(seq.Hops) == 0 {
		return Result{}, stageErr(StageEuler, ErrEmptyTrail)
	}

	first := seq.Hops[0].U
	origin, found := g.Node(first)
	if !found {
		return Result{}, stageErr(StageWalk, fmt.Errorf("%w: %d", locate.ErrUnknownNode, first))
	}
	// catalog from the loaded edges only; eulerization duplicates reuse them
	cat := trail.NewCatalog(g.Edges)
	t, err := r.walker.Walk(ctx, origin.Point, seq.Hops, cat)
	if err != nil {
		return Result{}, stageErr(StageWalk, err)
	}

	res := Result{
		Trail:      t,
		Hops:       seq.Hops,
		Source:     first,
		Background: g.Geometries(),
		Stats: Stats{
			Nodes:   len(g.Nodes),
			Edges:   len(g.Edges),
			Added:   seq.Added,
			Hops:    len(seq.Hops),
			Points:  len(t),
			Reuses:  cat.Reuses(),
			LengthM: t.Length(),
		},
	}

	if r.mapper != nil && req.H3Res >= 0 {
		cells, err := r.mapper.CellsForTrail(t, req.H3Res)
		if err != nil {
			return Result{}, stageErr(StageCoverage, err)
		}
		res.Stats.H3Cells = cells
	}

	files, err := r.write(req, res)
	if err != nil {
		return Result{}, stageErr(StageExport, err)
	}
	res.Files = files

	r.logger.InfoContext(ctx, "trail ready",
		"query", req.Query.Name(),
		"mode", string(req.Mode),
		"network", req.Network,
		"source", int64(first),
		"hops", res.Stats.Hops,
		"points", res.Stats.Points,
		"added_edges", res.Stats.Added,
		"length_m", res.Stats.LengthM,
		"files", len(files),
		"duration", time.Since(start).String())
	return res, nil
}

func validate(req *Request) error {
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return err
	}
	req.Mode = mode

	nt, err := osmgraph.ParseNetworkType(req.Network)
	if err != nil {
		return err
	}
	req.Network = string(nt)

	if req.Outputs.Animate {
		if err := req.Outputs.Animation.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) write(req Request, res Result) ([]string, error) {
	name := req.Query.Name()
	out := req.Outputs
	var files []string

	if out.GPX {
		path := out.GPXPath
		if path == "" {
			path = gpx.DefaultPath(name)
		}
		if err := gpx.WriteFile(path, res.Trail); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	if out.GeoJSON {
		path := out.GeoJSONPath
		if path == "" {
			path = "./" + name + ".geojson"
		}
		if err := geojsonout.WriteFile(path, res.Trail, res.Stats.Summary()); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	if out.Animate {
		path := out.GIFPath
		if path == "" {
			path = animate.DefaultPath(name)
		}
		if err := animate.WriteFile(path, res.Trail, res.Background, out.Animation); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
