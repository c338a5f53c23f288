package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from VERNIS_* env vars.
type Config struct {
	Port        string
	DatabaseDSN string
	AuthSecret  string
	AuthIssuer  string
	SessionTTL  time.Duration
	ConfirmTTL  time.Duration
	ResetTTL    time.Duration
	RateBurst   int
	RatePerSec  int
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("VERNIS_PORT"), "8080"),
		DatabaseDSN: strings.TrimSpace(os.Getenv("VERNIS_PG_DSN")),
		AuthSecret:  strings.TrimSpace(os.Getenv("VERNIS_AUTH_SECRET")),
		AuthIssuer:  fallback(os.Getenv("VERNIS_AUTH_ISSUER"), "vernis"),
		SessionTTL:  durationMinutes("VERNIS_SESSION_TTL_MINUTES", 60),
		ConfirmTTL:  durationHours("VERNIS_CONFIRM_TTL_HOURS", 24),
		ResetTTL:    durationHours("VERNIS_RESET_TTL_HOURS", 2),
		RateBurst:   intVar("VERNIS_RATE_BURST", 20),
		RatePerSec:  intVar("VERNIS_RATE_PER_SEC", 10),
	}
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("VERNIS_AUTH_SECRET is required")
	}
	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func intVar(name string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name))); err == nil && v > 0 {
		return v
	}
	return def
}

func durationMinutes(name string, def int) time.Duration {
	return time.Duration(intVar(name, def)) * time.Minute
}

func durationHours(name string, def int) time.Duration {
	return time.Duration(intVar(name, def)) * time.Hour
}
