package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds session settings loaded from srcmap.yml.
type ProjectConfig struct {
	EditThreshold  int      `yaml:"editThreshold,omitempty"`
	QuietPeriodMs  int      `yaml:"quietPeriodMs,omitempty"`
	RetryBackoffMs int      `yaml:"retryBackoffMs,omitempty"`
	ParseTimeoutMs int      `yaml:"parseTimeoutMs,omitempty"`
	MaxFileBytes   int      `yaml:"maxFileBytes,omitempty"`
	ExcludeDirs    []string `yaml:"excludeDirs,omitempty"`
	Verbose        bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read srcmap.yml or srcmap.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"srcmap.yml", "srcmap.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// QuietPeriod returns the configured quiet period, or zero when unset so the
// scheduler applies its default.
func (c *ProjectConfig) QuietPeriod() time.Duration {
	return time.Duration(c.QuietPeriodMs) * time.Millisecond
}

// RetryBackoff returns the configured retry backoff, or zero when unset.
func (c *ProjectConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// ParseTimeout returns the configured parse timeout, or zero when unset.
func (c *ProjectConfig) ParseTimeout() time.Duration {
	return time.Duration(c.ParseTimeoutMs) * time.Millisecond
}
