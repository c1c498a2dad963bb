package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/metrics"
)

type okHandler struct{}

func (okHandler) HandleTrail(_ context.Context, w http.ResponseWriter, _ *http.Request, q model.TrailRequest) {
	w.Header().Set("Content-Type", q.Format.ContentType())
	_, _ = w.Write([]byte("<trk/>"))
}

func TestRouter_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := metrics.Init(metrics.Config{Enabled: true, Build: metrics.BuildInfo{Version: "test"}})
	cfg := config.Config{TrailMode: "circuit", NetworkType: "walk"}

	srv := httptest.NewServer(NewRouter(cfg, logger, okHandler{}, Options{Metrics: p.Handler()}))
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer func() { _ = resp.Body.Close() }()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "ok" {
		t.Fatalf("/healthz %d %q", code, body)
	}
	if code, _ := get("/readyz"); code != http.StatusOK {
		t.Fatalf("/readyz %d", code)
	}
	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "trail_build_info") {
		t.Fatalf("/metrics %d", code)
	}
	if code, body := get("/trail?place=Gamla+stan"); code != http.StatusOK || body != "<trk/>" {
		t.Fatalf("/trail %d %q", code, body)
	}
	if code, _ := get("/trail"); code != http.StatusBadRequest {
		t.Fatalf("/trail without area %d want 400", code)
	}
}
