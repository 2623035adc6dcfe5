// Package config handles CLI configuration loading and profile resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultKeyRef names the keystore entry used when no api_key_ref is set.
const DefaultKeyRef = "default"

// Config represents the CLI configuration file.
//
// Top-level fields form the default profile. Named profiles override them
// field by field.
type Config struct {
	ProjectURL    string             `yaml:"project_url"`
	APIKeyRef     string             `yaml:"api_key_ref"`
	DefaultRegion string             `yaml:"default_region"`
	Timeout       time.Duration      `yaml:"timeout"`
	Profiles      map[string]Profile `yaml:"profiles"`
}

// Profile holds the settings for one project.
type Profile struct {
	ProjectURL    string        `yaml:"project_url,omitempty"`
	APIKeyRef     string        `yaml:"api_key_ref,omitempty"`
	DefaultRegion string        `yaml:"default_region,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.basalt/config.yaml
// - Windows: %USERPROFILE%\.basalt\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".basalt", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Profiles: make(map[string]Profile),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return cfg, nil
}

// Resolve returns the effective settings for the named profile.
// An empty name selects the top-level settings. Unknown names fail.
func (c *Config) Resolve(name string) (Profile, error) {
	base := Profile{
		ProjectURL:    c.ProjectURL,
		APIKeyRef:     c.APIKeyRef,
		DefaultRegion: c.DefaultRegion,
		Timeout:       c.Timeout,
	}
	if name == "" {
		return base, nil
	}

	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}

	if p.ProjectURL != "" {
		base.ProjectURL = p.ProjectURL
	}
	if p.APIKeyRef != "" {
		base.APIKeyRef = p.APIKeyRef
	} else {
		// A profile without its own ref reads the key stored under its name.
		base.APIKeyRef = name
	}
	if p.DefaultRegion != "" {
		base.DefaultRegion = p.DefaultRegion
	}
	if p.Timeout != 0 {
		base.Timeout = p.Timeout
	}
	return base, nil
}

// KeyRef returns the keystore entry holding this profile's API key.
func (p Profile) KeyRef() string {
	if p.APIKeyRef == "" {
		return DefaultKeyRef
	}
	return p.APIKeyRef
}
