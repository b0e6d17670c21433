package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, SourceModeMock, cfg.Source.Mode)
	assert.Equal(t, "csv", cfg.Source.Format)
	assert.Equal(t, 3, cfg.Source.MaxAttempts)
	assert.Equal(t, "Student Name", cfg.Columns.Name)
	assert.Equal(t, "All Good", cfg.Sentinels.ProfileComplete)
	assert.Equal(t, "skill_badges", cfg.Ranking.Formula)
	assert.Equal(t, 10, cfg.Ranking.MedalThreshold)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Email.Recipients)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
source:
  mode: remote
  url: https://docs.example.com/sheet.csv
  timeout: 5s
columns:
  name: "Participant"
ranking:
  formula: skill_badges_plus_arcade
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("REDIS_ADDRS", "10.0.0.1:6379, 10.0.0.2:6379")
	t.Setenv("EMAIL_RECIPIENTS", "a@example.com,b@example.com")
	t.Setenv("INGEST_ID_STRATEGY", "natural")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceModeRemote, cfg.Source.Mode)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "Participant", cfg.Columns.Name)
	assert.Equal(t, "User Email", cfg.Columns.Email)
	assert.Equal(t, "skill_badges_plus_arcade", cfg.Ranking.Formula)
	assert.Equal(t, "natural", cfg.Ingest.IDStrategy)
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, cfg.Redis.Addrs)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.Recipients)
}

func TestLoad_OverridesAppliedBeforeValidate(t *testing.T) {
	t.Setenv("SOURCE_MODE", "remote")
	t.Setenv("SOURCE_URL", "")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	// без URL удаленный режим не проходит проверку
	_, err := Load(missing)
	require.Error(t, err)

	cfg, err := Load(missing, func(c *Config) {
		c.Source.URL = "https://docs.example.com/sheet.csv"
	})
	require.NoError(t, err)
	assert.Equal(t, SourceModeRemote, cfg.Source.Mode)
	assert.Equal(t, "https://docs.example.com/sheet.csv", cfg.Source.URL)

	// переопределение тоже проходит проверку
	_, err = Load(missing, func(c *Config) {
		c.Source.URL = "https://docs.example.com/sheet.csv"
		c.Ranking.Formula = "median"
	})
	assert.ErrorContains(t, err, "formula")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "remote without url", mutate: func(c *Config) { c.Source.Mode = SourceModeRemote; c.Source.URL = "" }},
		{name: "unknown mode", mutate: func(c *Config) { c.Source.Mode = "ftp" }},
		{name: "unknown format", mutate: func(c *Config) { c.Source.Format = "ods" }},
		{name: "unknown formula", mutate: func(c *Config) { c.Ranking.Formula = "arcade_only" }},
		{name: "unknown id strategy", mutate: func(c *Config) { c.Ingest.IDStrategy = "random" }},
		{name: "empty name column", mutate: func(c *Config) { c.Columns.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}
