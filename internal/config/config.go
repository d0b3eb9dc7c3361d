// Package config loads the cadence configuration file.
// Configuration is read once at process start; schedule changes
// require a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CadenceDaily is the only cadence currently implemented.
const CadenceDaily = "daily"

// Config is the full ~/.cadence/agents.yaml configuration.
type Config struct {
	// PipelineURL is the base URL of the generation pipeline.
	PipelineURL string `yaml:"pipeline_url"`

	// BackupPipelineURL is the base URL of the secondary model used by
	// the backup_model strategy. Empty disables the strategy.
	BackupPipelineURL string `yaml:"backup_pipeline_url"`

	// WebhookURL receives subscriber notifications on successful drops.
	// Empty disables notification.
	WebhookURL string `yaml:"webhook_url"`

	// EODSweepHourUTC is the UTC hour of the end-of-day safety sweep.
	EODSweepHourUTC int `yaml:"eod_sweep_hour_utc"`

	Agents []AgentConfig `yaml:"agents"`
}

// AgentConfig is one agent's schedule, static for the process lifetime.
type AgentConfig struct {
	ID                string `yaml:"id"`
	Timezone          string `yaml:"timezone"`
	DropTime          string `yaml:"drop_time"`
	Cadence           string `yaml:"cadence"`
	PracticeStartDate string `yaml:"practice_start_date"`
}

// DefaultDir returns the cadence home directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cadence"), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "agents.yaml"), nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	for i := range cfg.Agents {
		if cfg.Agents[i].Cadence == "" {
			cfg.Agents[i].Cadence = CadenceDaily
		}
	}
	if cfg.EODSweepHourUTC < 0 || cfg.EODSweepHourUTC > 23 {
		return nil, fmt.Errorf("eod_sweep_hour_utc %d out of range", cfg.EODSweepHourUTC)
	}

	return &cfg, nil
}

// starterConfig is written by `cadence init` when no config exists.
const starterConfig = `# Cadence agent schedules. Loaded once at startup.
pipeline_url: "http://localhost:8199"
backup_pipeline_url: ""
webhook_url: ""
eod_sweep_hour_utc: 23

agents: []
# agents:
#   - id: abraham
#     timezone: America/New_York
#     drop_time: "09:00"
#     cadence: daily
#     practice_start_date: "2025-01-01"
`

// WriteStarter writes a commented starter config to path unless a file
// already exists there.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
