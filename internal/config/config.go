package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the osfsearch service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Engine  EngineConfig  `yaml:"engine"`
	Store   StoreConfig   `yaml:"store"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	Tasks   TasksConfig   `yaml:"tasks"`
	Reindex ReindexConfig `yaml:"reindex"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotated file sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig holds API authentication settings for write and admin routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds search engine settings.
type EngineConfig struct {
	Driver            string   `yaml:"driver"` // elastic, bleve (default: elastic)
	Addrs             []string `yaml:"addrs"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	Index             string   `yaml:"index"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
	RefreshOnWrite    *bool    `yaml:"refresh_on_write"`
	BlevePath         string   `yaml:"bleve_path"`
	HealthTimeoutSec  int      `yaml:"health_timeout_sec"`
}

// StoreConfig holds entity store connection settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// SearchConfig holds pagination and result shaping settings.
type SearchConfig struct {
	DefaultPageSize     int `yaml:"default_page_size"`
	MaxPageSize         int `yaml:"max_page_size"`
	ContributorPageSize int `yaml:"contributor_page_size"`
	GravatarSize        int `yaml:"gravatar_size"`
}

// TasksConfig holds async hook delivery settings.
type TasksConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	Concurrency   int    `yaml:"concurrency"`
}

// ReindexConfig holds out-of-band reindex settings.
type ReindexConfig struct {
	Schedule   string  `yaml:"schedule"` // cron spec; empty disables
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from a YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.Driver == "" {
		c.Engine.Driver = "elastic"
	}
	if c.Engine.Index == "" {
		c.Engine.Index = "website"
	}
	if c.Engine.RequestTimeoutSec <= 0 {
		c.Engine.RequestTimeoutSec = 10
	}
	if c.Engine.RefreshOnWrite == nil {
		refresh := true
		c.Engine.RefreshOnWrite = &refresh
	}
	if c.Engine.BlevePath == "" {
		c.Engine.BlevePath = "./data/search.bleve"
	}
	if c.Engine.HealthTimeoutSec <= 0 {
		c.Engine.HealthTimeoutSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "redis"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "osf:"
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 10
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 250
	}
	if c.Search.ContributorPageSize <= 0 {
		c.Search.ContributorPageSize = 5
	}
	if c.Search.GravatarSize <= 0 {
		c.Search.GravatarSize = 40
	}
	if c.Tasks.Concurrency <= 0 {
		c.Tasks.Concurrency = 10
	}
	if c.Reindex.RatePerSec <= 0 {
		c.Reindex.RatePerSec = 200
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Engine.Driver {
	case "elastic":
		if len(c.Engine.Addrs) == 0 {
			return fmt.Errorf("engine.addrs is required for the elastic driver")
		}
	case "bleve":
	default:
		return fmt.Errorf("engine.driver must be \"elastic\" or \"bleve\", got %q", c.Engine.Driver)
	}
	switch c.Store.Driver {
	case "redis":
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver must be \"redis\" or \"memory\", got %q", c.Store.Driver)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Tasks.Enabled && c.Tasks.RedisAddr == "" {
		return fmt.Errorf("tasks.redis_addr is required when tasks.enabled is set")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
