// Command eulertrail computes an Eulerian trail over a street network and
// writes it as GPX, GeoJSON or an animated GIF.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/httpclient"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/router"
	"github.com/mohammed-shakir/eulerian-streets/internal/export/animate"
	"github.com/mohammed-shakir/eulerian-streets/internal/geocode"
	"github.com/mohammed-shakir/eulerian-streets/internal/logger"
	h3mapper "github.com/mohammed-shakir/eulerian-streets/internal/mapper/h3"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
)

var errUsage = errors.New("usage")

type flags struct {
	place, bbox, address, file string
	dist                       float64

	mode, network                  string
	start, startAddress            string
	startNode                      int64
	gpx, geojson, anim             bool
	gpxPath, geojsonPath, gifPath  string
	figSize, frameShare            float64
	dpi, h3Res                     int
	retainAll, printTrail, noCover bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, cfg config.Config, stderr io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("eulertrail", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.place, "place", "", "place name resolved through Nominatim")
	fs.StringVar(&f.bbox, "bbox", "", "bounding box north,south,east,west")
	fs.StringVar(&f.address, "address", "", "address at the center of the network")
	fs.Float64Var(&f.dist, "dist", 1000, "meters around -address")
	fs.StringVar(&f.file, "file", "", "local OSM XML or GeoJSON snapshot")

	fs.StringVar(&f.mode, "mode", cfg.TrailMode, "circuit or path")
	fs.StringVar(&f.network, "network", cfg.NetworkType, "all_private, all, walk, bike or drive")
	fs.StringVar(&f.start, "start", "", "start near lon,lat")
	fs.Int64Var(&f.startNode, "start-node", 0, "start at this OSM node id")
	fs.StringVar(&f.startAddress, "start-address", "", "start near this address")

	fs.BoolVar(&f.gpx, "gpx", true, "write a GPX file")
	fs.StringVar(&f.gpxPath, "gpx-path", "", "GPX output path (default ./<name>.gpx)")
	fs.BoolVar(&f.geojson, "geojson", false, "write a GeoJSON file")
	fs.StringVar(&f.geojsonPath, "geojson-path", "", "GeoJSON output path (default ./<name>.geojson)")
	fs.BoolVar(&f.anim, "animate", false, "write an animated GIF")
	fs.StringVar(&f.gifPath, "gif-path", "", "GIF output path (default ./<name>.gif)")
	fs.Float64Var(&f.figSize, "fig-size", cfg.Animation.FigSize, "figure size in inches")
	fs.Float64Var(&f.frameShare, "frame-share", cfg.Animation.FrameShare, "share of points drawn as frames, in (0,1]")
	fs.IntVar(&f.dpi, "dpi", cfg.Animation.DPI, "pixels per inch")

	fs.IntVar(&f.h3Res, "h3-res", cfg.H3Res, "H3 resolution for coverage cells")
	fs.BoolVar(&f.noCover, "no-coverage", false, "skip H3 coverage")
	fs.BoolVar(&f.retainAll, "retain-all", cfg.RetainAll, "keep disconnected components")
	fs.BoolVar(&f.printTrail, "print-trail", false, "print lon,lat of every trail point")

	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// request turns parsed flags into a pipeline request. The first of file,
// bbox, place and address given selects the network.
func (f flags) request() (pipeline.Request, error) {
	var q model.Query
	switch {
	case f.file != "":
		q = model.Query{Kind: model.QueryFile, Path: f.file}
	case f.bbox != "":
		bb, err := router.ParseBBox(f.bbox)
		if err != nil {
			return pipeline.Request{}, err
		}
		q = model.Query{Kind: model.QueryBBox, BBox: bb}
	case f.place != "":
		q = model.Query{Kind: model.QueryPlace, Place: f.place}
	case f.address != "":
		if f.dist <= 0 {
			return pipeline.Request{}, fmt.Errorf("dist must be positive, got %v", f.dist)
		}
		q = model.Query{Kind: model.QueryAddress, Address: f.address, Dist: f.dist}
	default:
		return pipeline.Request{}, fmt.Errorf("%w: one of -file, -bbox, -place or -address is required", errUsage)
	}

	var start model.Start
	switch {
	case f.startNode != 0:
		start = model.StartAtNode(model.NodeID(f.startNode))
	case f.start != "":
		p, err := router.ParseLonLat(f.start)
		if err != nil {
			return pipeline.Request{}, err
		}
		start = model.StartAtPoint(p)
	case f.startAddress != "":
		start = model.StartAtAddress(f.startAddress)
	}

	res := f.h3Res
	if f.noCover {
		res = -1
	}

	return pipeline.Request{
		Query:   q,
		Network: f.network,
		Mode:    model.Mode(f.mode),
		Start:   start,
		H3Res:   res,
		Outputs: pipeline.Outputs{
			GPX:         f.gpx,
			GPXPath:     f.gpxPath,
			GeoJSON:     f.geojson,
			GeoJSONPath: f.geojsonPath,
			Animate:     f.anim,
			GIFPath:     f.gifPath,
			Animation: animate.Options{
				FigSize:    f.figSize,
				FrameShare: f.frameShare,
				DPI:        f.dpi,
			},
		},
	}, nil
}

type summary struct {
	Query   string   `json:"query"`
	Source  int64    `json:"source"`
	Nodes   int      `json:"nodes"`
	Edges   int      `json:"edges"`
	Added   int      `json:"added_edges"`
	Hops    int      `json:"hops"`
	Points  int      `json:"points"`
	Reuses  int      `json:"reused_geometries"`
	LengthM float64  `json:"length_m"`
	H3Cells int      `json:"h3_cells"`
	Files   []string `json:"files"`
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.FromEnv()
	f, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   true,
		Component: "eulertrail",
	}, stderr)
	appLog := logger.NewSlog(&zl)

	req, err := f.request()
	if err != nil {
		appLog.Error("invalid arguments", "err", err)
		return 2
	}

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
	runner := pipeline.New(appLog,
		pipeline.NewUpstream(overpass, geocoder, f.retainAll),
		geocoder, h3mapper.New())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx, req)
	if err != nil {
		appLog.Error("trail failed", "err", err)
		return 1
	}

	if f.printTrail {
		var b strings.Builder
		for _, p := range res.Trail {
			b.WriteString(strconv.FormatFloat(p.Lon(), 'f', -1, 64))
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(p.Lat(), 'f', -1, 64))
			b.WriteByte('\n')
		}
		_, _ = io.WriteString(stdout, b.String())
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary{
		Query:   req.Query.Name(),
		Source:  int64(res.Source),
		Nodes:   res.Stats.Nodes,
		Edges:   res.Stats.Edges,
		Added:   res.Stats.Added,
		Hops:    res.Stats.Hops,
		Points:  res.Stats.Points,
		Reuses:  res.Stats.Reuses,
		LengthM: res.Stats.LengthM,
		H3Cells: len(res.Stats.H3Cells),
		Files:   res.Files,
	}); err != nil {
		appLog.Error("write summary", "err", err)
		return 1
	}
	return 0
}
