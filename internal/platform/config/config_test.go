package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohortd/internal/platform/config"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("COHORTD_ADDR", "")
	t.Setenv("COHORTD_DATABASE_URL", "postgres://localhost/cohortd")
	t.Setenv("COHORTD_MAX_EXTRACTION_ROWS", "")
	t.Setenv("COHORTD_EXTRACTION_TIMEOUT", "")

	cfg := config.FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 1000, cfg.MaxExtractionRows)
	assert.Equal(t, 10*time.Second, cfg.ExtractionTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("COHORTD_ADDR", ":9999")
	t.Setenv("COHORTD_MAX_EXTRACTION_ROWS", "250")
	t.Setenv("COHORTD_EXTRACTION_TIMEOUT", "30s")

	cfg := config.FromEnv()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 250, cfg.MaxExtractionRows)
	assert.Equal(t, 30*time.Second, cfg.ExtractionTimeout)
}

func TestFromEnvIgnoresInvalidOverrides(t *testing.T) {
	t.Setenv("COHORTD_MAX_EXTRACTION_ROWS", "-4")
	t.Setenv("COHORTD_EXTRACTION_TIMEOUT", "soon")

	cfg := config.FromEnv()
	assert.Equal(t, 1000, cfg.MaxExtractionRows)
	assert.Equal(t, 10*time.Second, cfg.ExtractionTimeout)
}

func TestValidate(t *testing.T) {
	valid := config.Server{
		Addr:                 ":8080",
		DatabaseURL:          "postgres://localhost/cohortd",
		AllocationConfigPath: "allocation.yaml",
		MaxExtractionRows:    1000,
	}
	require.NoError(t, valid.Validate())

	missingDB := valid
	missingDB.DatabaseURL = ""
	assert.Error(t, missingDB.Validate())

	missingAllocation := valid
	missingAllocation.AllocationConfigPath = ""
	assert.Error(t, missingAllocation.Validate())
}
