// Where: internal/config/global.go
// What: Global config load/save helpers.
// Why: Manage ~/.tradebuild/config.yaml consistently.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quantfarm/tradebuild/internal/meta"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents the ~/.tradebuild/config.yaml global configuration.
type GlobalConfig struct {
	Version  int           `yaml:"version"`
	Defaults BuildDefaults `yaml:"build_defaults,omitempty"`
}

// BuildDefaults stores defaults and last-used build inputs.
type BuildDefaults struct {
	Name           string `yaml:"name,omitempty"`
	Account        string `yaml:"account,omitempty"`
	ManifestBucket string `yaml:"manifest_bucket,omitempty"`
	HistoryTable   string `yaml:"history_table,omitempty"`
	S3Endpoint     string `yaml:"s3_endpoint,omitempty"`
	LastTag        string `yaml:"last_tag,omitempty"`
}

// DefaultGlobalConfig returns an initialized GlobalConfig with version set.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Version: 1,
		Defaults: BuildDefaults{
			Name:    meta.DefaultImageName,
			Account: "paper",
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
// Respects TRADEBUILD_CONFIG_PATH and TRADEBUILD_CONFIG_HOME overrides.
func GlobalConfigPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv(meta.EnvPrefix + "_CONFIG_PATH")); override != "" {
		path := override
		if !filepath.IsAbs(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		return path, nil
	}
	if override := strings.TrimSpace(os.Getenv(meta.EnvPrefix + "_CONFIG_HOME")); override != "" {
		return filepath.Join(override, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, meta.HomeDir, "config.yaml"), nil
}

// EnsureGlobalConfig creates the global config file if it doesn't exist.
func EnsureGlobalConfig() error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return SaveGlobalConfig(path, DefaultGlobalConfig())
		}
		return err
	}
	return nil
}

// LoadGlobalConfig reads and parses the global configuration file.
func LoadGlobalConfig(path string) (GlobalConfig, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return GlobalConfig{}, err
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}

// SaveGlobalConfig writes a GlobalConfig to the specified path.
func SaveGlobalConfig(path string, cfg GlobalConfig) error {
	payload, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, payload, 0o644)
}
