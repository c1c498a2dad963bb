// Command trail-loadgen replays a Zipf distributed mix of bounding boxes
// against GET /trail and reports latency percentiles and cache hit ratio.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

type Config struct {
	TargetURL       string
	Format          string
	Mode            string
	Concurrency     int
	Duration        time.Duration
	ZipfS           float64
	ZipfV           float64
	BBoxCount       int
	OutputPrefix    string
	RequestTimeout  time.Duration
	AppendTimestamp bool
	CentroidFile    string
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090/trail", "trail server /trail URL")
	flag.StringVar(&cfg.Format, "format", "gpx", "gpx or geojson")
	flag.StringVar(&cfg.Mode, "mode", "circuit", "circuit or path")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.BBoxCount, "bboxes", 64, "distinct bboxes in pool")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/trail", "output file prefix (JSON/CSV)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 3*time.Minute, "per-request timeout")
	flag.BoolVar(&cfg.AppendTimestamp, "append-ts", true, "append timestamp to output prefix")
	flag.StringVar(&cfg.CentroidFile, "centroids", "", "optional centroid CSV file (id,lon,lat) to drive bboxes")
	flag.Parse()
	return cfg
}

// one sample per request
type sample struct {
	Timestamp time.Time
	Latency   time.Duration
	Status    int
	Cache     string
	ErrorMsg  string
	BoxIndex  int
	BBox      string
}

type summary struct {
	StartTime     time.Time `json:"start"`
	EndTime       time.Time `json:"end"`
	DurationSec   float64   `json:"duration_sec"`
	TotalRequests int64     `json:"total"`
	SuccessCount  int64     `json:"success"`
	ErrorCount    int64     `json:"errors"`
	Hits          int64     `json:"cache_hits"`
	Misses        int64     `json:"cache_misses"`
	HitRatio      float64   `json:"hit_ratio"`
	ThroughputRPS float64   `json:"throughput_rps"`
	P50Ms         float64   `json:"p50_ms"`
	P95Ms         float64   `json:"p95_ms"`
	P99Ms         float64   `json:"p99_ms"`
	Concurrency   int       `json:"concurrency"`
	ZipfS         float64   `json:"zipf_s"`
	ZipfV         float64   `json:"zipf_v"`
	BBoxes        int       `json:"bboxes"`
	TargetURL     string    `json:"target"`
}

type tally struct {
	total, success, errors int64
	hits, misses           int64
	latMs                  []float64
}

func (t *tally) add(s sample) {
	t.total++
	if s.ErrorMsg != "" || s.Status < 200 || s.Status >= 300 {
		t.errors++
		return
	}
	t.success++
	t.latMs = append(t.latMs, float64(s.Latency.Microseconds())/1000.0)
	switch s.Cache {
	case "HIT":
		t.hits++
	case "MISS":
		t.misses++
	}
}

func (t *tally) hitRatio() float64 {
	if n := t.hits + t.misses; n > 0 {
		return float64(t.hits) / float64(n)
	}
	return 0
}

func trailURL(base *url.URL, bb model.BBox, format, mode string) string {
	u := *base
	q := u.Query()
	q.Set("bbox", bb.String())
	q.Set("format", format)
	q.Set("mode", mode)
	u.RawQuery = q.Encode()
	return u.String()
}

func main() {
	cfg := loadConfig()
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		log.Fatalf("mkdir results: %v", err)
	}
	base, err := url.Parse(cfg.TargetURL)
	if err != nil {
		log.Fatalf("bad target: %v", err)
	}

	prefix := cfg.OutputPrefix
	if cfg.AppendTimestamp {
		prefix = fmt.Sprintf("%s_%s", prefix, time.Now().UTC().Format("20060102_150405Z"))
	}

	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))

	var boxes []model.BBox
	if strings.TrimSpace(cfg.CentroidFile) != "" {
		cs, err := loadCentroidsCSV(cfg.CentroidFile)
		if err != nil {
			log.Printf("WARN: failed to load centroids from %q: %v; falling back to synthetic bboxes", cfg.CentroidFile, err)
		} else {
			boxes = bboxesFromCentroids(cs, cfg.BBoxCount)
		}
	}
	if len(boxes) == 0 {
		boxes = makeBBoxes(cfg.BBoxCount, r)
	}
	if len(boxes) == 0 {
		log.Fatalf("no bboxes generated")
	}
	imax := uint64(len(boxes)) - 1

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:        256,
			MaxIdleConnsPerHost: 64,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	csvPath := prefix + "_samples.csv"
	jsonPath := prefix + "_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer func() { _ = csvFile.Close() }()
	csvWriter := csv.NewWriter(csvFile)

	samples := make(chan sample, 1024)
	results := make(chan *tally, 1)
	go func() {
		_ = csvWriter.Write([]string{"timestamp", "latency_ms", "status", "cache", "error", "bbox_idx", "bbox"})
		t := &tally{}
		for s := range samples {
			t.add(s)
			_ = csvWriter.Write([]string{
				s.Timestamp.UTC().Format(time.RFC3339Nano),
				fmt.Sprintf("%.3f", float64(s.Latency.Microseconds())/1000.0),
				fmt.Sprintf("%d", s.Status),
				s.Cache,
				s.ErrorMsg,
				fmt.Sprintf("%d", s.BoxIndex),
				s.BBox,
			})
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			log.Printf("csv flush error: %v", err)
		}
		results <- t
	}()

	startTime := time.Now()
	log.Printf("loadgen start target=%s dur=%s conc=%d zipf(s=%.2f,v=%.2f) bboxes=%d",
		cfg.TargetURL, cfg.Duration, cfg.Concurrency, cfg.ZipfS, cfg.ZipfV, len(boxes))

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for workerID := range cfg.Concurrency {
		go func(id int) {
			defer wg.Done()
			zipf := rand.NewZipf(rand.New(rand.NewSource(seed+int64(id)+1)), cfg.ZipfS, cfg.ZipfV, imax)
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				v := zipf.Uint64()
				if v > uint64(math.MaxInt) || int(v) >= len(boxes) {
					continue
				}
				idx := int(v)
				box := boxes[idx]

				begin := time.Now()
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, trailURL(base, box, cfg.Format, cfg.Mode), nil)
				resp, err := httpClient.Do(req)
				s := sample{Timestamp: begin, Latency: time.Since(begin), BoxIndex: idx, BBox: box.String()}
				if err != nil {
					s.ErrorMsg = err.Error()
				} else {
					s.Status = resp.StatusCode
					s.Cache = resp.Header.Get("X-Cache")
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
					if resp.StatusCode < 200 || resp.StatusCode >= 300 {
						s.ErrorMsg = fmt.Sprintf("status=%d", resp.StatusCode)
					}
				}

				select {
				case samples <- s:
				case <-ctx.Done():
					return
				}
			}
		}(workerID)
	}

	go func() {
		<-ctx.Done()
		wg.Wait()
		close(samples)
	}()

	t := <-results
	endTime := time.Now()
	elapsed := endTime.Sub(startTime).Seconds()

	sort.Float64s(t.latMs)
	out := summary{
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		DurationSec:   elapsed,
		TotalRequests: t.total,
		SuccessCount:  t.success,
		ErrorCount:    t.errors,
		Hits:          t.hits,
		Misses:        t.misses,
		HitRatio:      t.hitRatio(),
		ThroughputRPS: float64(t.total) / elapsed,
		P50Ms:         percentile(t.latMs, 50),
		P95Ms:         percentile(t.latMs, 95),
		P99Ms:         percentile(t.latMs, 99),
		Concurrency:   cfg.Concurrency,
		ZipfS:         cfg.ZipfS,
		ZipfV:         cfg.ZipfV,
		BBoxes:        len(boxes),
		TargetURL:     cfg.TargetURL,
	}

	if f, err := os.Create(filepath.Clean(jsonPath)); err == nil {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		_ = f.Close()
	}

	log.Printf("done: total=%d succ=%d err=%d hit_ratio=%.2f thr=%.2f rps p50=%.1fms p95=%.1fms p99=%.1fms",
		t.total, t.success, t.errors, out.HitRatio, out.ThroughputRPS, out.P50Ms, out.P95Ms, out.P99Ms)
	log.Printf("wrote %s and %s", jsonPath, csvPath)
}
