package driver

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/logger"
)

const (
	envOptimized = "ABLE_ASPECTS_OPTIMIZED"
	envLog       = "ABLE_ASPECTS_LOG"
)

// Config is the effective process configuration: manifest settings with
// environment overrides applied on top.
type Config struct {
	Optimized bool
	LogMode   string
}

func validLogMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "dev", "development", "debug", "prod", "production", "off", "none", "nop":
		return true
	default:
		return false
	}
}

// ResolveConfig starts from the manifest settings (m may be nil) and applies
// ABLE_ASPECTS_OPTIMIZED and ABLE_ASPECTS_LOG when set.
func ResolveConfig(m *Manifest) (Config, error) {
	return resolveConfig(m, os.LookupEnv)
}

func resolveConfig(m *Manifest, lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{LogMode: "dev"}
	if m != nil {
		cfg.Optimized = m.Settings.Optimized
		if m.Settings.Log != "" {
			cfg.LogMode = m.Settings.Log
		}
	}
	if raw, ok := lookup(envOptimized); ok && strings.TrimSpace(raw) != "" {
		on, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return cfg, fmt.Errorf("config: %s=%q is not a boolean", envOptimized, raw)
		}
		cfg.Optimized = on
	}
	if raw, ok := lookup(envLog); ok && strings.TrimSpace(raw) != "" {
		if !validLogMode(raw) {
			return cfg, fmt.Errorf("config: %s=%q is not a log mode", envLog, raw)
		}
		cfg.LogMode = strings.TrimSpace(raw)
	}
	return cfg, nil
}

// Logger builds the logger selected by LogMode.
func (c Config) Logger() (*logger.Logger, error) {
	return logger.New(c.LogMode)
}

// Activate publishes the optimized switch process-wide.
func (c Config) Activate() {
	aspect.SetOptimized(c.Optimized)
}
