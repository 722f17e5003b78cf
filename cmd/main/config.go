package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/vantol/trawler/pkg/distribution"
)

// ServerConfig holds the configuration for the HTTP server and its storage.
type ServerConfig struct {
	ServerAddr          string `json:"server_addr"`
	LogLevel            string `json:"log_level"`
	DataDir             string `json:"data_dir"`
	DatabasePath        string `json:"database_path"`
	DashboardTmplPath   string `json:"dashboard_tmpl_path"`
	DashboardStaticPath string `json:"dashboard_static_path"`
}

// SearchConfig holds the defaults applied to search generation.
type SearchConfig struct {
	// CatalogPath optionally points at a JSON file of extra patterns merged
	// into the built-in catalog at startup.
	CatalogPath string `json:"catalog_path"`

	// HistoryLimit is the default number of history entries returned by the
	// history API when the request doesn't specify one.
	HistoryLimit int `json:"history_limit"`

	// DefaultDistribution shapes filler-run sampling when a request doesn't
	// carry its own distribution config.
	DefaultDistribution *distribution.Config `json:"default_distribution"`
}

// Config is the top-level configuration struct aggregating all other configs.
type Config struct {
	Server *ServerConfig `json:"server_config"`
	Search *SearchConfig `json:"search_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:          ":7399",
		LogLevel:            "info",
		DataDir:             "./data",
		DatabasePath:        "./data/trawler.db?_journal_mode=WAL&_busy_timeout=5000",
		DashboardTmplPath:   "./data/dashboard/templates/",
		DashboardStaticPath: "./data/dashboard/static/",
	}
}

// DefaultSearchConfig creates a search configuration with default values.
func DefaultSearchConfig() *SearchConfig {
	cfg := distribution.DefaultConfig()
	return &SearchConfig{
		CatalogPath:         "./data/patterns.json",
		HistoryLimit:        50,
		DefaultDistribution: &cfg,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Server: DefaultServerConfig(),
		Search: DefaultSearchConfig(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, the server can still run
				// with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ConfigManager handles thread-safe access to configuration and persistence.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetLogger sets the logger. That's about it.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// Update replaces the configuration and saves it to disk atomically. Address
// and database changes take effect on the next restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if newConfig.Server == nil || newConfig.Search == nil {
		return fmt.Errorf("config update rejected: missing section")
	}

	*cm.config = newConfig

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cm.logger.Info("Configuration updated and saved")
	return nil
}
