package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Everything is resolved once at
// startup; business logic never reads the environment directly.
type Server struct {
	Addr                 string
	DatabaseURL          string
	RedisURL             string
	AllocationConfigPath string
	MaxExtractionRows    int
	ExtractionTimeout    time.Duration
}

const defaultMaxExtractionRows = 1000

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COHORTD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	maxRows := defaultMaxExtractionRows
	if raw := os.Getenv("COHORTD_MAX_EXTRACTION_ROWS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			maxRows = parsed
		}
	}

	timeout := 10 * time.Second
	if raw := os.Getenv("COHORTD_EXTRACTION_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			timeout = parsed
		}
	}

	return Server{
		Addr:                 addr,
		DatabaseURL:          os.Getenv("COHORTD_DATABASE_URL"),
		RedisURL:             os.Getenv("COHORTD_REDIS_URL"),
		AllocationConfigPath: os.Getenv("COHORTD_ALLOCATION_CONFIG"),
		MaxExtractionRows:    maxRows,
		ExtractionTimeout:    timeout,
	}
}

// Validate rejects an unusable configuration at startup rather than deep
// inside a rule evaluation. RedisURL is optional; the lookup cache is skipped
// when it is empty.
func (s Server) Validate() error {
	if s.DatabaseURL == "" {
		return fmt.Errorf("COHORTD_DATABASE_URL is required")
	}
	if s.AllocationConfigPath == "" {
		return fmt.Errorf("COHORTD_ALLOCATION_CONFIG is required")
	}
	if s.MaxExtractionRows <= 0 {
		return fmt.Errorf("max extraction rows must be positive, got %d", s.MaxExtractionRows)
	}
	return nil
}
