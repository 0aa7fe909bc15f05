package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/metailurini/harrislist/internal/workload"
	"github.com/spf13/viper"
)

var errInvalidFlag = errors.New("invalid flag")

// config is the resolved configuration of one run.
type config struct {
	Threads       int
	Duration      time.Duration
	Keys          int
	UpdatePercent int
	Dist          workload.Distribution
	Seed          int64
	Rate          float64
	BackoffMin    int
	BackoffMax    int
	Verify        bool
	Prometheus    string
	LogLevel      slog.Level
	LogFormat     string
}

// initConfig loads .env files and lets HARRISLIST-prefixed environment
// variables override flags, e.g. HARRISLIST_THREADS=8.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("harrislist")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads and validates the run configuration from v.
func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Threads:       v.GetInt("threads"),
		Duration:      v.GetDuration("duration"),
		Keys:          v.GetInt("keys"),
		UpdatePercent: v.GetInt("update-percent"),
		Seed:          v.GetInt64("seed"),
		Rate:          v.GetFloat64("rate"),
		BackoffMin:    v.GetInt("backoff-min"),
		BackoffMax:    v.GetInt("backoff-max"),
		Verify:        v.GetBool("verify"),
		Prometheus:    v.GetString("prometheus"),
		LogFormat:     strings.ToLower(v.GetString("log-format")),
	}

	dist, err := workload.ParseDistribution(v.GetString("dist"))
	if err != nil {
		return config{}, fmt.Errorf("--dist: %w", err)
	}
	cfg.Dist = dist

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return config{}, fmt.Errorf("%w: --log-level: %w", errInvalidFlag, err)
	}

	switch {
	case cfg.Threads < 1:
		return config{}, fmt.Errorf("%w: --threads must be positive, got %d", errInvalidFlag, cfg.Threads)
	case cfg.Duration <= 0:
		return config{}, fmt.Errorf("%w: --duration must be positive, got %s", errInvalidFlag, cfg.Duration)
	case int64(cfg.Keys) > math.MaxUint32:
		return config{}, fmt.Errorf("%w: --keys must fit in 32 bits, got %d", errInvalidFlag, cfg.Keys)
	case cfg.Rate < 0:
		return config{}, fmt.Errorf("%w: --rate must not be negative, got %g", errInvalidFlag, cfg.Rate)
	case cfg.BackoffMin < 0 || cfg.BackoffMax < 0:
		return config{}, fmt.Errorf("%w: backoff bounds must not be negative", errInvalidFlag)
	case cfg.BackoffMax > 0 && cfg.BackoffMin > cfg.BackoffMax:
		return config{}, fmt.Errorf("%w: --backoff-min %d exceeds --backoff-max %d", errInvalidFlag, cfg.BackoffMin, cfg.BackoffMax)
	case cfg.LogFormat != "text" && cfg.LogFormat != "json":
		return config{}, fmt.Errorf("%w: --log-format must be text or json, got %q", errInvalidFlag, cfg.LogFormat)
	}

	if err := cfg.workload().Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) workload() workload.Config {
	return workload.Config{
		Dist:          c.Dist,
		Keys:          c.Keys,
		UpdatePercent: c.UpdatePercent,
	}
}

// newLogger builds the slog logger selected by the log flags.
func newLogger(c config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
