// Package config loads and validates the process configuration. Anything
// missing here refuses to start the process rather than running
// half-configured.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robalyx/vigil/internal/scoring"
)

var (
	ErrConfigFileNotFound = errors.New("could not find config file in any config path")
	ErrMissingToken       = errors.New("bot.token must be set")
	ErrMissingScoringKey  = errors.New("scoring.key must be set")
	ErrInvalidThreshold   = errors.New("thresholds must be within [0,1]")
)

// Config represents the entire application configuration.
type Config struct {
	Bot     BotConfig     `koanf:"bot"`
	Scoring ScoringConfig `koanf:"scoring"`
	Logging LoggingConfig `koanf:"logging"`
}

// BotConfig contains chat-gateway configuration.
type BotConfig struct {
	// Gateway token.
	Token string `koanf:"token"`
	// Group number binding this deployment to its channels. Zero means
	// "parse it from the bot's display name".
	GroupNumber int `koanf:"group_number"`
	// Path of the append-only message history log.
	HistoryFile string `koanf:"history_file"`
}

// ScoringConfig contains scoring-oracle configuration.
type ScoringConfig struct {
	// Analysis endpoint. Empty selects the default comment analyzer.
	Endpoint string `koanf:"endpoint"`
	// API key.
	Key string `koanf:"key"`
	// Per-category flag thresholds in [0,1]. Empty selects the defaults.
	Thresholds map[string]float64 `koanf:"thresholds"`
}

// LoggingConfig contains log file configuration.
type LoggingConfig struct {
	// Directory holding per-session log directories.
	Directory string `koanf:"directory"`
	// Log level (debug, info, warn, error).
	Level string `koanf:"level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// LoadConfig finds and loads config.toml, applies defaults, and validates
// the result.
func LoadConfig(configDir string) (*Config, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		configDir,
		".vigil",
		homeDir + "/.vigil/config",
		"/etc/vigil/config",
		"config",
		".",
	}

	configLoaded := false

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		configPath := fmt.Sprintf("%s/config.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			configLoaded = true
			break
		}
	}

	if !configLoaded {
		return nil, fmt.Errorf("%w: config.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ThresholdTable converts the configured thresholds to their typed form.
func (c *ScoringConfig) ThresholdTable() scoring.ThresholdTable {
	if len(c.Thresholds) == 0 {
		return scoring.DefaultThresholds()
	}

	table := make(scoring.ThresholdTable, len(c.Thresholds))
	for category, threshold := range c.Thresholds {
		table[scoring.Category(category)] = threshold
	}

	return table
}

func applyDefaults(config *Config) {
	if config.Bot.HistoryFile == "" {
		config.Bot.HistoryFile = "data/history.jsonl"
	}

	if config.Logging.Directory == "" {
		config.Logging.Directory = "logs"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	if config.Logging.MaxLogsToKeep == 0 {
		config.Logging.MaxLogsToKeep = 10
	}
}

func validate(config *Config) error {
	if config.Bot.Token == "" {
		return ErrMissingToken
	}

	if config.Scoring.Key == "" {
		return ErrMissingScoringKey
	}

	for category, threshold := range config.Scoring.Thresholds {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: %s = %f", ErrInvalidThreshold, category, threshold)
		}
	}

	return nil
}
