package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for ln := range strings.SplitSeq(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_AppMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Enabled: true, Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)
	t.Cleanup(func() { observability.Init(nil, false) })

	start := time.Now()
	observability.ObserveHTTP("GET", "/trail", 200, time.Since(start).Seconds())
	observability.ObserveHTTP("GET", "/trail", 422, 0.010)
	observability.ObserveUpstreamLatency("overpass", 0.4)

	observability.IncCacheHit("redis")
	observability.IncCacheMiss("graph")
	observability.ObserveCacheOp("get", nil, 0.002)
	observability.ObserveTrailBuild("ok", 4, 12, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	mustContain := []string{
		`http_request_duration_seconds_bucket`,
		`redis_operation_duration_seconds_count`,
		`upstream_latency_seconds_count{upstream="overpass"} 1`,
		`cache_results_total{cache="redis",outcome="hit"} 1`,
		`cache_results_total{cache="graph",outcome="miss"} 1`,
		`trail_builds_total{outcome="ok"} 1`,
	}
	for _, s := range mustContain {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}

	assertHasMetricLine(t, body, "http_requests_total",
		`route="/trail"`, `status="200"`)
	assertHasMetricLine(t, body, "http_requests_total",
		`route="/trail"`, `status="422"`)
	assertHasMetricLine(t, body, "trail_build_info",
		`version="test"`)
}
