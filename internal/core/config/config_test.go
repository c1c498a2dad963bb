package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "H3_RES", "CACHE_ENABLED", "NETWORK_TYPE", "TRAIL_MODE", "ANIM_FRAME_SHARE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Addr != ":8090" || c.H3Res != 9 || c.CacheEnabled {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.NetworkType != "walk" || c.TrailMode != "circuit" {
		t.Fatalf("network=%q mode=%q", c.NetworkType, c.TrailMode)
	}
	if c.Animation.FigSize != 5 || c.Animation.FrameShare != 1 || c.Animation.DPI != 80 {
		t.Fatalf("animation defaults: %+v", c.Animation)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("H3_RES", "42")
	t.Setenv("CACHE_ENABLED", "yes")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("NETWORK_TYPE", "DRIVE")
	t.Setenv("ANIM_FRAME_SHARE", "0.25")
	t.Setenv("ANIM_DPI", "not-a-number")

	c := FromEnv()
	if c.Addr != ":9999" {
		t.Fatalf("addr=%q", c.Addr)
	}
	if c.H3Res != 15 {
		t.Fatalf("h3 res must clamp to 15, got %d", c.H3Res)
	}
	if !c.CacheEnabled || c.CacheTTL != 90*time.Second {
		t.Fatalf("cache=%v ttl=%v", c.CacheEnabled, c.CacheTTL)
	}
	if c.NetworkType != "drive" {
		t.Fatalf("network=%q", c.NetworkType)
	}
	if c.Animation.FrameShare != 0.25 || c.Animation.DPI != 80 {
		t.Fatalf("animation=%+v", c.Animation)
	}
}
