package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MY_GITHUB_LOGIN", "MY_GITHUB_EMAIL", "OPENAI_MODEL", "BRANCH", "OUT_DIR",
		"LOG_LEVEL", "LOG_FORMAT", "CHUNK_SIZE", "REPOS", "GITHUB_TOKEN", "GH_TOKEN",
		"OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.Source.Provider)
	assert.Equal(t, "main", cfg.Source.Branch)
	assert.Equal(t, 8, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 20*time.Second, cfg.Retry.MaxInterval)
	assert.Equal(t, "Asia/Seoul", cfg.Reports.Timezone)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
source:
  repos: [acme/api, acme/web]
  branch: develop
author:
  login: octocat
pipeline:
  chunk_size: 6
retry:
  initial_interval: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"acme/api", "acme/web"}, cfg.Source.Repos)
	assert.Equal(t, "develop", cfg.Source.Branch)
	assert.Equal(t, "octocat", cfg.Author.Login)
	assert.Equal(t, 6, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialInterval)
	// untouched sections keep their defaults
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, "gpt-4o-mini", cfg.Review.Model)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "author:\n  login: fromfile\n")
	t.Setenv("MY_GITHUB_LOGIN", "fromenv")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("REPOS", "a/b, c/d ,")
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Author.Login)
	assert.Equal(t, "gpt-4.1", cfg.Review.Model)
	assert.Equal(t, []string{"a/b", "c/d"}, cfg.Source.Repos)
	assert.Equal(t, "ghp_test", cfg.Source.GitHub.Token)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "source: [unterminated")

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Author.Login = "octocat"
	cfg.Source.Repos = []string{"acme/api"}
	cfg.Source.GitHub.Token = "ghp_test"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "no author",
			mutate:  func(c *Config) { c.Author = AuthorConfig{} },
			wantErr: "author login or email",
		},
		{
			name:    "no repos",
			mutate:  func(c *Config) { c.Source.Repos = nil },
			wantErr: "at least one repository",
		},
		{
			name:    "no token",
			mutate:  func(c *Config) { c.Source.GitHub.Token = "" },
			wantErr: "github token",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Source.Provider = "svn" },
			wantErr: "unknown source provider",
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Pipeline.ChunkSize = 0 },
			wantErr: "chunk_size",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Reports.Timezone = "Mars/Olympus" },
			wantErr: "invalid timezone",
		},
		{
			name: "local without repos uses root",
			mutate: func(c *Config) {
				c.Source.Provider = "local"
				c.Source.Repos = nil
				c.Source.GitHub.Token = ""
			},
		},
		{
			name: "email without host",
			mutate: func(c *Config) {
				c.Email.Enabled = true
			},
			wantErr: "smtp_host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateFillsAPIKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sk-test", cfg.Review.APIKey)
}

func TestValidateClampsParallelRepos(t *testing.T) {
	clearEnv(t)
	cfg := validConfig()
	cfg.Pipeline.ParallelRepos = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Pipeline.ParallelRepos)
}
