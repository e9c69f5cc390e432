package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/outbreak-sim/outbreak-sim/sim"
)

func TestLoadEnvConfig_Defaults(t *testing.T) {
	for _, k := range []string{envAddr, envLogLevel, envMethod, envMaxStep, envMaxSteps, envTraceLevel} {
		t.Setenv(k, "")
	}
	cfg, err := LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, "rk4", cfg.Method)
	assert.Equal(t, sim.DefaultMaxStep, cfg.MaxStep)
	assert.Equal(t, sim.DefaultMaxSteps, cfg.MaxSteps)
}

func TestLoadEnvConfig_ProcessEnvOverridesFile(t *testing.T) {
	// GIVEN a .env file and one variable already set in the process
	path := filepath.Join(t.TempDir(), ".env")
	body := "OUTBREAK_ADDR=:9999\nOUTBREAK_METHOD=euler\nOUTBREAK_MAX_STEPS=5000\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	t.Setenv(envAddr, ":7070")
	// godotenv never overrides a variable that exists, even when empty, so
	// the file-provided keys must be absent. t.Setenv restores them afterwards.
	t.Setenv(envMethod, "")
	t.Setenv(envMaxSteps, "")
	os.Unsetenv(envMethod)
	os.Unsetenv(envMaxSteps)

	// WHEN loaded
	cfg, err := LoadEnvConfig(path)

	// THEN file values fill the gaps and the process value wins
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "euler", cfg.Method)
	assert.Equal(t, 5000, cfg.MaxSteps)
	assert.Equal(t, sim.MethodEuler, cfg.ServiceConfig().Method)
}

func TestLoadEnvConfig_BadNumber_ReturnsError(t *testing.T) {
	t.Setenv(envMaxSteps, "lots")
	_, err := LoadEnvConfig()
	assert.Error(t, err)

	t.Setenv(envMaxSteps, "")
	t.Setenv(envMaxStep, "tiny")
	_, err = LoadEnvConfig()
	assert.Error(t, err)
}
