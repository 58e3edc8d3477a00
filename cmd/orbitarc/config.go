package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/star/orbitarc/internal/api"
	"github.com/star/orbitarc/internal/auth"
	"github.com/star/orbitarc/internal/propagation"
	"github.com/star/orbitarc/internal/tracing"
)

// tleConfig configures the on-disk archive and the remote source.
type tleConfig struct {
	CacheDir  string
	MaxFiles  int
	SourceURL string
	ExtraURLs []string
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json", "":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want json or text)", format)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadSamplingConfig(logger *slog.Logger) propagation.Config {
	cfg := propagation.DefaultConfig()
	cfg.Workers = runtime.NumCPU()

	if v := os.Getenv("ORBITARC_ARC_PERIODS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0) {
			logger.Warn("invalid ORBITARC_ARC_PERIODS value, using default", "value", v, "default", cfg.ArcPeriods)
		} else {
			cfg.ArcPeriods = f
		}
	}

	if v := os.Getenv("ORBITARC_STEP_MINUTES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0) {
			logger.Warn("invalid ORBITARC_STEP_MINUTES value, using default", "value", v, "default", cfg.StepMinutes)
		} else {
			cfg.StepMinutes = f
		}
	}

	if v := os.Getenv("ORBITARC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITARC_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	if v := os.Getenv("ORBITARC_MAX_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITARC_MAX_SAMPLES value, using default", "value", v, "default", cfg.MaxSamples)
		} else {
			cfg.MaxSamples = n
		}
	}

	if v := os.Getenv("ORBITARC_FRAME"); v != "" {
		f, ok := propagation.ParseFrame(strings.ToLower(v))
		if !ok {
			logger.Warn("invalid ORBITARC_FRAME value, using default", "value", v, "default", cfg.Frame)
		} else {
			cfg.Frame = f
		}
	}

	return cfg
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ORBITARC_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ORBITARC_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ORBITARC_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ORBITARC_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadHTTPConfig(logger *slog.Logger) (api.Config, error) {
	cfg := api.DefaultConfig()
	cfg.Addr = envOr("ORBITARC_HTTP_ADDR", cfg.Addr)

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		return cfg, err
	}
	cfg.Auth = authCfg

	if v := os.Getenv("ORBITARC_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITARC_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = b
		}
	}

	if v := os.Getenv("ORBITARC_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITARC_MAX_UPLOAD_BYTES value, using default", "value", v, "default", cfg.MaxUploadBytes)
		} else {
			cfg.MaxUploadBytes = n
		}
	}

	if v := os.Getenv("ORBITARC_MAX_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITARC_MAX_SAMPLES value, using default", "value", v, "default", cfg.MaxSamples)
		} else {
			cfg.MaxSamples = n
		}
	}

	return cfg, nil
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		CacheDir:  "/tmp/orbitarc/tle",
		MaxFiles:  5,
		SourceURL: os.Getenv("ORBITARC_TLE_SOURCE_URL"),
	}

	if v := os.Getenv("ORBITARC_TLE_EXTRA_URLS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.ExtraURLs = append(cfg.ExtraURLs, u)
			}
		}
	}

	cfg.CacheDir = envOr("ORBITARC_TLE_CACHE_DIR", cfg.CacheDir)

	if v := os.Getenv("ORBITARC_TLE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITARC_TLE_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	return cfg
}

func loadTracingConfig(logger *slog.Logger) tracing.Config {
	cfg := tracing.DefaultConfig()

	if v := os.Getenv("ORBITARC_TRACING_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITARC_TRACING_ENABLED value, defaulting to false", "value", v)
		} else {
			cfg.Enabled = b
		}
	}

	cfg.Exporter = strings.ToLower(envOr("ORBITARC_TRACING_EXPORTER", cfg.Exporter))
	cfg.Endpoint = os.Getenv("ORBITARC_OTLP_ENDPOINT")

	if v := os.Getenv("ORBITARC_TRACING_SAMPLE_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			logger.Warn("invalid ORBITARC_TRACING_SAMPLE_RATIO value, using default", "value", v, "default", cfg.SampleRatio)
		} else {
			cfg.SampleRatio = f
		}
	}

	return cfg
}

// parseSource splits a LABEL=PATH argument. A bare path is labelled with
// its file name minus extension.
func parseSource(arg string) (label, path string, err error) {
	if l, p, ok := strings.Cut(arg, "="); ok {
		if l == "" || p == "" {
			return "", "", fmt.Errorf("invalid source %q (want LABEL=PATH)", arg)
		}
		return l, p, nil
	}
	if arg == "" {
		return "", "", errors.New("empty source")
	}
	base := arg
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base, arg, nil
}
