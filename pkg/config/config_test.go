package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default("http://localhost:9999")

	assert.Equal(t, "http://localhost:9999", cfg.Gateway.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 3, cfg.Gateway.MaxRetries)
	assert.Equal(t, StrategyStaged, cfg.Loader.Strategy)
	assert.Equal(t, PolicyAttempted, cfg.Loader.BatchPolicy)
	assert.Equal(t, 4, cfg.Loader.RandomCount)
	assert.Equal(t, 30, cfg.Loader.VisitDays)
	assert.Equal(t, "任氏有无轩", cfg.Site.Name)
	require.NoError(t, Validate(cfg))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RSYWX_API_BASE", "http://gateway.test")
	t.Setenv("RSYWX_API_KEY", "secret")
	t.Setenv("RSYWX_LOADER_STRATEGY", "concurrent")
	t.Setenv("RSYWX_GATEWAY_TIMEOUT", "3s")

	cfg, err := Load(Options{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}})
	require.NoError(t, err)

	assert.Equal(t, "http://gateway.test", cfg.Gateway.BaseURL)
	assert.Equal(t, "secret", cfg.Gateway.APIKey)
	assert.Equal(t, StrategyConcurrent, cfg.Loader.Strategy)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RSYWX_API_KEY=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RSYWX_API_KEY") })

	cfg, err := Load(Options{EnvFiles: []string{envFile}})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Gateway.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rsywx.yaml")
	content := []byte(`
gateway:
  base_url: http://yaml.test
  max_retries: 5
loader:
  batch_policy: succeeded
  wave_timeout: 45s
`)
	require.NoError(t, os.WriteFile(file, content, 0o644))

	cfg, err := Load(Options{ConfigFile: file, EnvFiles: []string{filepath.Join(dir, "none.env")}})
	require.NoError(t, err)

	assert.Equal(t, "http://yaml.test", cfg.Gateway.BaseURL)
	assert.Equal(t, 5, cfg.Gateway.MaxRetries)
	assert.Equal(t, PolicySucceeded, cfg.Loader.BatchPolicy)
	assert.Equal(t, 45*time.Second, cfg.Loader.WaveTimeout)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"invalid base url", func(c *Config) { c.Gateway.BaseURL = "not a url" }},
		{"empty base url", func(c *Config) { c.Gateway.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Gateway.Timeout = 0 }},
		{"unknown strategy", func(c *Config) { c.Loader.Strategy = "eager" }},
		{"unknown policy", func(c *Config) { c.Loader.BatchPolicy = "sometimes" }},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"zero concurrency", func(c *Config) { c.Loader.MaxConcurrency = 0 }},
		{"burst too large", func(c *Config) { c.Gateway.Burst = 1000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("http://localhost")
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
