package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// BackendConfig locates the conversational search service.
type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	SearchPath  string `yaml:"search_path"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SessionConfig configures the client-side turn history.
type SessionConfig struct {
	HistoryTTLMins int `yaml:"history_ttl_mins"`
	HistoryLimit   int `yaml:"history_limit"`
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Backend BackendConfig `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// envOverrides are read with the SHOPSEARCH_ prefix and win over the file.
type envOverrides struct {
	BackendURL  string `envconfig:"BACKEND_URL"`
	SearchPath  string `envconfig:"SEARCH_PATH"`
	TimeoutSecs int    `envconfig:"TIMEOUT_SECS"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	LogFile     string `envconfig:"LOG_FILE"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SHOPSEARCH"

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/shopsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/shopsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks values that would otherwise fail late.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if c.Backend.TimeoutSecs < 0 {
		return fmt.Errorf("backend.timeout_secs must not be negative")
	}
	if c.Session.HistoryTTLMins < 0 || c.Session.HistoryLimit < 0 {
		return fmt.Errorf("session history settings must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func userDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shopsearch"), nil
}

func defaultLogFile() string {
	dir, err := userDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "shopsearch.log")
	}
	return filepath.Join(dir, "shopsearch.log")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Backend: BackendConfig{BaseURL: "http://127.0.0.1:8002", SearchPath: "/search", TimeoutSecs: 30},
		Session: SessionConfig{HistoryTTLMins: 60, HistoryLimit: 10},
		Logging: LoggingConfig{Level: "info", File: defaultLogFile()},
		Metrics: MetricsConfig{Enabled: false, Addr: "127.0.0.1:9464"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:8002"
	}
	if cfg.Backend.SearchPath == "" {
		cfg.Backend.SearchPath = "/search"
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = 30
	}
	if cfg.Session.HistoryTTLMins == 0 {
		cfg.Session.HistoryTTLMins = 60
	}
	if cfg.Session.HistoryLimit == 0 {
		cfg.Session.HistoryLimit = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = defaultLogFile()
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "127.0.0.1:9464"
	}
}

func applyEnvOverrides(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}
	if env.BackendURL != "" {
		cfg.Backend.BaseURL = strings.TrimSpace(env.BackendURL)
	}
	if env.SearchPath != "" {
		cfg.Backend.SearchPath = env.SearchPath
	}
	if env.TimeoutSecs != 0 {
		cfg.Backend.TimeoutSecs = env.TimeoutSecs
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.LogFile != "" {
		cfg.Logging.File = env.LogFile
	}
	if env.MetricsAddr != "" {
		cfg.Metrics.Addr = env.MetricsAddr
		cfg.Metrics.Enabled = true
	}
	return nil
}
