package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config holds the matproj CLI and fixture server configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Client    ClientConfig    `yaml:"client"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// APIConfig points the client at a Materials Project deployment.
type APIConfig struct {
	Key      string `yaml:"key"`
	Endpoint string `yaml:"endpoint"`
}

// ClientConfig holds request and paging settings.
type ClientConfig struct {
	TimeoutSec       int   `yaml:"timeout_sec"`
	MaxRetries       int   `yaml:"max_retries"`
	ParallelRequests int   `yaml:"parallel_requests"`
	ChunkSize        int   `yaml:"chunk_size"`
	MaxURLLength     int   `yaml:"max_url_length"`
	MontyDecode      *bool `yaml:"monty_decode"`
	UserAgent        *bool `yaml:"include_user_agent"`
}

// CacheConfig enables the Redis response cache when Addr is set.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	TTLSec   int    `yaml:"ttl_sec"`
}

// ServerConfig holds fixture server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	APIKeys         []string `yaml:"api_keys"`
	FixturesDir     string   `yaml:"fixtures_dir"` // empty: built-in fixtures
	DBVersion       string   `yaml:"db_version"`
}

// AssistantConfig holds the OpenAI-compatible chat endpoint used by "ask".
type AssistantConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	MaxTurns int    `yaml:"max_turns"`

	// Token budget; zero limits are unlimited.
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"`
	BudgetAction      string `yaml:"budget_action"` // warn, reject (default: warn)
}

// Timeout returns the per-request timeout.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from the given YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
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

// Default returns a configuration with only defaults applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
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
	if c.API.Endpoint == "" {
		c.API.Endpoint = "https://api.materialsproject.org/"
	}
	if c.Client.TimeoutSec <= 0 {
		c.Client.TimeoutSec = 20
	}
	if c.Client.ParallelRequests <= 0 {
		c.Client.ParallelRequests = 8
	}
	if c.Client.ChunkSize <= 0 {
		c.Client.ChunkSize = 1000
	}
	if c.Client.MaxURLLength <= 0 {
		c.Client.MaxURLLength = 2000
	}
	if c.Client.MontyDecode == nil {
		on := true
		c.Client.MontyDecode = &on
	}
	if c.Client.UserAgent == nil {
		on := true
		c.Client.UserAgent = &on
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = 10
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = 10
	}
	if c.Server.ShutdownSec <= 0 {
		c.Server.ShutdownSec = 10
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "gpt-4o-mini"
	}
	if c.Assistant.MaxTurns <= 0 {
		c.Assistant.MaxTurns = 5
	}
	if c.Assistant.BudgetAction == "" {
		c.Assistant.BudgetAction = "warn"
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if !strings.HasPrefix(c.API.Endpoint, "http://") && !strings.HasPrefix(c.API.Endpoint, "https://") {
		result = multierror.Append(result, fmt.Errorf("api.endpoint must be an http(s) URL, got %q", c.API.Endpoint))
	}
	if c.Client.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("client.max_retries must not be negative, got %d", c.Client.MaxRetries))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Assistant.DailyTokenLimit < 0 || c.Assistant.MonthlyTokenLimit < 0 {
		result = multierror.Append(result, errors.New("assistant token limits must not be negative"))
	}
	switch c.Assistant.BudgetAction {
	case "", "warn", "reject":
	default:
		result = multierror.Append(result, fmt.Errorf(
			"assistant.budget_action must be warn or reject, got %q", c.Assistant.BudgetAction,
		))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		result = multierror.Append(result, fmt.Errorf(
			"logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level,
		))
	}
	return result.ErrorOrNil()
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
