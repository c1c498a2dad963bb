package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AnimationCfg holds the GIF rendering defaults.
type AnimationCfg struct {
	FigSize    float64
	FrameShare float64
	DPI        int
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	OverpassURL     string
	NominatimURL    string
	UserAgent       string
	UpstreamTimeout time.Duration
	RedisAddr       string
	CacheEnabled    bool
	CacheTTL        time.Duration
	CacheOpTimeout  time.Duration
	GraphCacheSize  int
	NetworkType     string
	TrailMode       string
	RetainAll       bool
	H3Res           int
	Animation       AnimationCfg
	MetricsEnabled  bool
}

func FromEnv() Config {
	res := getint("H3_RES", 9)
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		OverpassURL:     getenv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		NominatimURL:    getenv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		UserAgent:       getenv("USER_AGENT", "eulerian-streets/0.1"),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 3*time.Minute),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		CacheEnabled:    getbool("CACHE_ENABLED", false),
		CacheTTL:        getduration("CACHE_TTL", 24*time.Hour),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		GraphCacheSize:  getint("GRAPH_CACHE_SIZE", 32),
		NetworkType:     strings.ToLower(getenv("NETWORK_TYPE", "walk")),
		TrailMode:       strings.ToLower(getenv("TRAIL_MODE", "circuit")),
		RetainAll:       getbool("RETAIN_ALL", false),
		H3Res:           res,
		Animation: AnimationCfg{
			FigSize:    getfloat("ANIM_FIG_SIZE", 5),
			FrameShare: getfloat("ANIM_FRAME_SHARE", 1),
			DPI:        getint("ANIM_DPI", 80),
		},
		MetricsEnabled: getbool("METRICS_ENABLED", true),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
