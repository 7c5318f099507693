package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/juparave/researchnote/internal/util"
)

// Config holds all application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Author   AuthorConfig   `yaml:"author"`
	Review   ReviewConfig   `yaml:"review"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Retry    RetryConfig    `yaml:"retry"`
	Reports  ReportsConfig  `yaml:"reports"`
	Email    EmailConfig    `yaml:"email"`
	Log      LogConfig      `yaml:"log"`
	Verbose  bool           `yaml:"-"` // Set via CLI only
}

// SourceConfig selects where commits come from
type SourceConfig struct {
	Provider string       `yaml:"provider"` // github, local
	Repos    []string     `yaml:"repos"`    // owner/name for github, paths for local
	Branch   string       `yaml:"branch"`
	RootPath string       `yaml:"root_path"` // local: scanned when repos is empty
	GitHub   GitHubConfig `yaml:"github"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// AuthorConfig identifies whose commits are reported
type AuthorConfig struct {
	Login string `yaml:"login"`
	Email string `yaml:"email"`
}

// ReviewConfig holds LLM settings
type ReviewConfig struct {
	Provider string `yaml:"provider"` // openai, googleai
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // Custom API endpoint for OpenAI-compatible services
	Language string `yaml:"language"` // language the notes are written in
}

// PipelineConfig bounds the per-commit analysis
type PipelineConfig struct {
	ChunkSize     int      `yaml:"chunk_size"`     // max findings per summarization call
	MaxDiffLines  int      `yaml:"max_diff_lines"` // 0 disables truncation
	Exclude       []string `yaml:"exclude"`        // doublestar globs, in addition to README files
	ParallelRepos int      `yaml:"parallel_repos"`
}

// RetryConfig shapes the backoff applied to every LLM call
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// ReportsConfig holds report storage settings
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir"`
	Timezone  string `yaml:"timezone"`
	HistoryDB string `yaml:"history_db"` // empty disables run history
}

// EmailConfig holds email delivery settings
type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromAddress  string `yaml:"from_address"`
	FromName     string `yaml:"from_name"`
	ToAddress    string `yaml:"to_address"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Source: SourceConfig{
			Provider: "github",
			Branch:   "main",
			RootPath: filepath.Join(homeDir, "projects"),
			GitHub: GitHubConfig{
				BaseURL: "https://api.github.com",
			},
		},
		Review: ReviewConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Language: "English",
		},
		Pipeline: PipelineConfig{
			ChunkSize:     8,
			MaxDiffLines:  1000,
			ParallelRepos: 1,
		},
		Retry: RetryConfig{
			MaxAttempts:     4,
			InitialInterval: time.Second,
			MaxInterval:     20 * time.Second,
		},
		Reports: ReportsConfig{
			OutputDir: "reports",
			Timezone:  "Asia/Seoul",
		},
		Email: EmailConfig{
			SMTPPort: 587,
			FromName: "Research Note",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "researchnote", "config.yaml")
}

// Load reads configuration from file, merges it with defaults and applies
// environment overrides. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(util.ExpandPath(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case os.IsNotExist(err):
			// Use defaults if file doesn't exist
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()

	cfg.Source.RootPath = util.ExpandPath(cfg.Source.RootPath)
	cfg.Reports.OutputDir = util.ExpandPath(cfg.Reports.OutputDir)
	cfg.Reports.HistoryDB = util.ExpandPath(cfg.Reports.HistoryDB)
	for i, repo := range cfg.Source.Repos {
		cfg.Source.Repos[i] = util.ExpandPath(repo)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Author.Login = getEnv("MY_GITHUB_LOGIN", c.Author.Login)
	c.Author.Email = getEnv("MY_GITHUB_EMAIL", c.Author.Email)
	c.Review.Model = getEnv("OPENAI_MODEL", c.Review.Model)
	c.Source.Branch = getEnv("BRANCH", c.Source.Branch)
	c.Reports.OutputDir = getEnv("OUT_DIR", c.Reports.OutputDir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Pipeline.ChunkSize = getEnvAsInt("CHUNK_SIZE", c.Pipeline.ChunkSize)

	if repos := os.Getenv("REPOS"); repos != "" {
		c.Source.Repos = splitList(repos)
	}
	if c.Source.GitHub.Token == "" {
		c.Source.GitHub.Token = firstEnv("GITHUB_TOKEN", "GH_TOKEN")
	}
}

// Location returns the timezone reports are dated in
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Reports.Timezone)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Author.Login == "" && c.Author.Email == "" {
		return fmt.Errorf("author login or email is required")
	}

	switch c.Source.Provider {
	case "github":
		if len(c.Source.Repos) == 0 {
			return fmt.Errorf("at least one repository is required")
		}
		if c.Source.GitHub.Token == "" {
			return fmt.Errorf("github token is required (set GITHUB_TOKEN)")
		}
	case "local":
		if len(c.Source.Repos) == 0 && c.Source.RootPath == "" {
			return fmt.Errorf("repos or root_path is required for the local source")
		}
	default:
		return fmt.Errorf("unknown source provider: %s", c.Source.Provider)
	}

	if c.Pipeline.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", c.Pipeline.ChunkSize)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Pipeline.ParallelRepos < 1 {
		c.Pipeline.ParallelRepos = 1
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Reports.Timezone, err)
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("smtp_host is required when email is enabled")
		}
		if c.Email.ToAddress == "" {
			return fmt.Errorf("to_address is required when email is enabled")
		}
	}

	if c.Review.APIKey == "" {
		switch c.Review.Provider {
		case "googleai":
			c.Review.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		default:
			c.Review.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
