package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/motion-energy/internal/alyx"
)

// DefaultConfigPath is the path to the checked-in converter defaults.
const DefaultConfigPath = "config/converter.defaults.json"

// ConverterConfig is the on-disk configuration of the converter. Every field
// is optional; the Get* methods fall back to the public Alyx defaults.
type ConverterConfig struct {
	BaseURL    *string `json:"base_url,omitempty"`
	Username   *string `json:"username,omitempty"`
	Password   *string `json:"password,omitempty"`
	Silent     *bool   `json:"silent,omitempty"`
	CacheDir   *string `json:"cache_dir,omitempty"`
	Collection *string `json:"collection,omitempty"`
	Timeout    *string `json:"timeout,omitempty"` // duration string like "90s"
}

// EmptyConverterConfig returns a ConverterConfig with all fields nil.
func EmptyConverterConfig() *ConverterConfig {
	return &ConverterConfig{}
}

// LoadConverterConfig loads a ConverterConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadConverterConfig(path string) (*ConverterConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConverterConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *ConverterConfig) Validate() error {
	if c.BaseURL != nil {
		u, err := url.Parse(*c.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", *c.BaseURL)
		}
	}
	if c.Timeout != nil && *c.Timeout != "" {
		d, err := time.ParseDuration(*c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", *c.Timeout, err)
		}
		if d < 0 {
			return fmt.Errorf("timeout must be non-negative, got %s", d)
		}
	}
	if c.Collection != nil && *c.Collection == "" {
		return fmt.Errorf("collection must not be empty")
	}
	return nil
}

// GetBaseURL returns base_url or the public Alyx instance.
func (c *ConverterConfig) GetBaseURL() string {
	if c.BaseURL == nil || *c.BaseURL == "" {
		return alyx.DefaultBaseURL
	}
	return *c.BaseURL
}

// GetUsername returns username or the public read-only user.
func (c *ConverterConfig) GetUsername() string {
	if c.Username == nil {
		return alyx.DefaultUsername
	}
	return *c.Username
}

// GetPassword returns password or the public read-only password.
func (c *ConverterConfig) GetPassword() string {
	if c.Password == nil {
		return alyx.DefaultPassword
	}
	return *c.Password
}

// GetSilent returns silent or the default (true).
func (c *ConverterConfig) GetSilent() bool {
	if c.Silent == nil {
		return true
	}
	return *c.Silent
}

// GetCacheDir returns cache_dir, or "" when unset.
func (c *ConverterConfig) GetCacheDir() string {
	if c.CacheDir == nil {
		return ""
	}
	return *c.CacheDir
}

// GetCollection returns collection or "alf".
func (c *ConverterConfig) GetCollection() string {
	if c.Collection == nil {
		return alyx.DefaultCollection
	}
	return *c.Collection
}

// GetTimeout parses and returns timeout as a time.Duration.
func (c *ConverterConfig) GetTimeout() time.Duration {
	if c.Timeout == nil || *c.Timeout == "" {
		return 5 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.Timeout)
	if err != nil {
		return 5 * time.Minute // default on parse error
	}
	return d
}

// AlyxConfig builds the client configuration.
func (c *ConverterConfig) AlyxConfig() alyx.Config {
	return alyx.Config{
		BaseURL:  c.GetBaseURL(),
		Username: c.GetUsername(),
		Password: c.GetPassword(),
		Silent:   c.GetSilent(),
		CacheDir: c.GetCacheDir(),
		Timeout:  c.GetTimeout(),
	}
}
