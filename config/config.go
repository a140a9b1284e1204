package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DirName is the per-user and per-workspace settings directory
const DirName = ".sourcemind"

// ServiceURLEnv overrides the configured AI service base URL
const ServiceURLEnv = "SOURCEMIND_SERVICE_URL"

// Config represents the sourcemind configuration
type Config struct {
	ServiceURL       string `json:"service_url"`       // Base URL of the AI service
	RequestTimeout   int    `json:"request_timeout"`   // Seconds before an inline edit request is abandoned
	IndexTimeout     int    `json:"index_timeout"`     // Seconds before a project indexing request is abandoned
	ShowHidden       bool   `json:"show_hidden"`       // Include dot-entries in the file tree
	RespectGitIgnore bool   `json:"respect_gitignore"` // Hide entries matched by .gitignore
	ConfirmDiscard   bool   `json:"confirm_discard"`   // Ask before dropping unsaved edits
	Watch            bool   `json:"watch"`             // Refresh the tree on external file changes
	Theme            string `json:"theme"`             // chroma style used for highlighting
	LogLevel         string `json:"log_level"`
	LogFile          string `json:"log_file"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		ServiceURL:       "http://localhost:8000",
		RequestTimeout:   120,
		IndexTimeout:     600,
		ShowHidden:       false,
		RespectGitIgnore: true,
		ConfirmDiscard:   true,
		Watch:            true,
		Theme:            "dracula",
		LogLevel:         "info",
	}
}

// LoadConfig loads configuration from global and local sources
func LoadConfig(workspacePath string) (*Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := loadGlobalConfig()
	if err == nil {
		mergeCfg(cfg, globalCfg)
	}

	if workspacePath != "" {
		localCfg, err := loadLocalConfig(workspacePath)
		if err == nil {
			mergeCfg(cfg, localCfg)
		}
	}

	if url := os.Getenv(ServiceURLEnv); url != "" {
		cfg.ServiceURL = url
	}

	return cfg, nil
}

// EditTimeout returns the inline edit timeout as a duration
func (c *Config) EditTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// IndexingTimeout returns the indexing timeout as a duration
func (c *Config) IndexingTimeout() time.Duration {
	return time.Duration(c.IndexTimeout) * time.Second
}

// ResolvedLogFile returns the log file path, defaulting to ~/.sourcemind/sourcemind.log
func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sourcemind.log")
	}
	return filepath.Join(homeDir, DirName, "sourcemind.log")
}

// Keys lists the settable configuration keys in display order
var Keys = []string{
	"service_url",
	"request_timeout",
	"index_timeout",
	"show_hidden",
	"respect_gitignore",
	"confirm_discard",
	"watch",
	"theme",
	"log_level",
	"log_file",
}

// Get retrieves a configuration value by key
func (c *Config) Get(key string) (interface{}, error) {
	switch key {
	case "service_url":
		return c.ServiceURL, nil
	case "request_timeout":
		return c.RequestTimeout, nil
	case "index_timeout":
		return c.IndexTimeout, nil
	case "show_hidden":
		return c.ShowHidden, nil
	case "respect_gitignore":
		return c.RespectGitIgnore, nil
	case "confirm_discard":
		return c.ConfirmDiscard, nil
	case "watch":
		return c.Watch, nil
	case "theme":
		return c.Theme, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration value by key
func (c *Config) Set(key string, value interface{}) error {
	// CLI input is always a string
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string value for %s", key)
	}

	switch key {
	case "service_url":
		c.ServiceURL = str
	case "request_timeout":
		return setSeconds(&c.RequestTimeout, key, str)
	case "index_timeout":
		return setSeconds(&c.IndexTimeout, key, str)
	case "show_hidden":
		return setBool(&c.ShowHidden, key, str)
	case "respect_gitignore":
		return setBool(&c.RespectGitIgnore, key, str)
	case "confirm_discard":
		return setBool(&c.ConfirmDiscard, key, str)
	case "watch":
		return setBool(&c.Watch, key, str)
	case "theme":
		c.Theme = str
	case "log_level":
		switch str {
		case "debug", "info", "warn", "error":
			c.LogLevel = str
		default:
			return fmt.Errorf("expected one of debug, info, warn, error for log_level, got: %s", str)
		}
	case "log_file":
		c.LogFile = str
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setBool(dst *bool, key, str string) error {
	switch str {
	case "true":
		*dst = true
	case "false":
		*dst = false
	default:
		return fmt.Errorf("expected 'true' or 'false' for %s, got: %s", key, str)
	}
	return nil
}

func setSeconds(dst *int, key, str string) error {
	val, err := strconv.Atoi(str)
	if err != nil || val <= 0 {
		return fmt.Errorf("expected positive number of seconds for %s, got: %s", key, str)
	}
	*dst = val
	return nil
}

// loadGlobalConfig loads configuration from ~/.sourcemind/config.json
func loadGlobalConfig() (*fileConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return loadConfigFromFile(filepath.Join(homeDir, DirName, "config.json"))
}

// loadLocalConfig loads configuration from <workspace>/.sourcemind/config.json
func loadLocalConfig(workspacePath string) (*fileConfig, error) {
	return loadConfigFromFile(filepath.Join(workspacePath, DirName, "config.json"))
}

// fileConfig mirrors Config with pointer fields so that unset booleans and numbers in a
// file do not clobber values from a lower layer.
type fileConfig struct {
	ServiceURL       *string `json:"service_url,omitempty"`
	RequestTimeout   *int    `json:"request_timeout,omitempty"`
	IndexTimeout     *int    `json:"index_timeout,omitempty"`
	ShowHidden       *bool   `json:"show_hidden,omitempty"`
	RespectGitIgnore *bool   `json:"respect_gitignore,omitempty"`
	ConfirmDiscard   *bool   `json:"confirm_discard,omitempty"`
	Watch            *bool   `json:"watch,omitempty"`
	Theme            *string `json:"theme,omitempty"`
	LogLevel         *string `json:"log_level,omitempty"`
	LogFile          *string `json:"log_file,omitempty"`
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(configPath string) (*fileConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg fileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	return &cfg, nil
}

// SaveLocalConfig saves configuration to <workspace>/.sourcemind/config.json
func SaveLocalConfig(workspacePath string, cfg *Config) error {
	return saveLocalFile(workspacePath, cfg)
}

// SetLocal validates value and stores key in <workspace>/.sourcemind/config.json.
// Other keys of the file are kept as they are; values coming from the global
// file or the environment are never written.
func SetLocal(workspacePath, key, value string) error {
	local, err := loadLocalConfig(workspacePath)
	if errors.Is(err, os.ErrNotExist) {
		local, err = &fileConfig{}, nil
	}
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	local.copyKey(key, cfg)

	return saveLocalFile(workspacePath, local)
}

func saveLocalFile(workspacePath string, v interface{}) error {
	dir := filepath.Join(workspacePath, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// copyKey sets the field of key from cfg
func (f *fileConfig) copyKey(key string, cfg *Config) {
	switch key {
	case "service_url":
		f.ServiceURL = &cfg.ServiceURL
	case "request_timeout":
		f.RequestTimeout = &cfg.RequestTimeout
	case "index_timeout":
		f.IndexTimeout = &cfg.IndexTimeout
	case "show_hidden":
		f.ShowHidden = &cfg.ShowHidden
	case "respect_gitignore":
		f.RespectGitIgnore = &cfg.RespectGitIgnore
	case "confirm_discard":
		f.ConfirmDiscard = &cfg.ConfirmDiscard
	case "watch":
		f.Watch = &cfg.Watch
	case "theme":
		f.Theme = &cfg.Theme
	case "log_level":
		f.LogLevel = &cfg.LogLevel
	case "log_file":
		f.LogFile = &cfg.LogFile
	}
}

// mergeCfg merges the fields present in src into dst
func mergeCfg(dst *Config, src *fileConfig) {
	if src.ServiceURL != nil && *src.ServiceURL != "" {
		dst.ServiceURL = *src.ServiceURL
	}
	if src.RequestTimeout != nil && *src.RequestTimeout > 0 {
		dst.RequestTimeout = *src.RequestTimeout
	}
	if src.IndexTimeout != nil && *src.IndexTimeout > 0 {
		dst.IndexTimeout = *src.IndexTimeout
	}
	if src.ShowHidden != nil {
		dst.ShowHidden = *src.ShowHidden
	}
	if src.RespectGitIgnore != nil {
		dst.RespectGitIgnore = *src.RespectGitIgnore
	}
	if src.ConfirmDiscard != nil {
		dst.ConfirmDiscard = *src.ConfirmDiscard
	}
	if src.Watch != nil {
		dst.Watch = *src.Watch
	}
	if src.Theme != nil && *src.Theme != "" {
		dst.Theme = *src.Theme
	}
	if src.LogLevel != nil && *src.LogLevel != "" {
		dst.LogLevel = *src.LogLevel
	}
	if src.LogFile != nil {
		dst.LogFile = *src.LogFile
	}
}
