// Package config loads argus's configuration surface (spec §6): the
// key/value table read via Viper (flags > env > config file > defaults),
// kept separate from the process secrets, which are read straight from the
// environment and never touch a Config value or get marshaled anywhere.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/sevigo/argus/internal/logger"
)

// ReviewDepth controls how much of the memory layer a review run consults.
type ReviewDepth string

const (
	ReviewDepthQuick    ReviewDepth = "quick"    // no memory
	ReviewDepthStandard ReviewDepth = "standard" // outline only
	ReviewDepthDeep     ReviewDepth = "deep"     // outline + patterns
)

// Config is the full configuration key table of spec §6.
type Config struct {
	Model                string      `mapstructure:"model"`
	MaxTokens             int         `mapstructure:"max_tokens"`
	StorageDir            string      `mapstructure:"storage_dir"`
	EmbeddingModel        string      `mapstructure:"embedding_model"`
	SearchRelatedIssues   bool        `mapstructure:"search_related_issues"`
	ConfidenceThreshold   float64     `mapstructure:"confidence_threshold"`
	ReviewDepth           ReviewDepth `mapstructure:"review_depth"`
	IgnoredPaths          []string    `mapstructure:"ignored_paths"`
	EnableAgentic         bool        `mapstructure:"enable_agentic"`
	ExtraExtensions       []string    `mapstructure:"extra_extensions"`
	Index                 IndexConfig `mapstructure:"index"`
	Logging               logger.Config `mapstructure:"logging"`
}

// IndexConfig groups the index-mode-only keys.
type IndexConfig struct {
	AnalyzePatterns bool `mapstructure:"analyze_patterns"`
}

// Validate checks max_tokens, storage_dir, confidence_threshold and
// review_depth. Config carries only the total max_tokens budget; the
// retrieval sub-budget is derived from it at review time.
func (c *Config) Validate() error {
	if c.MaxTokens <= 0 {
		return errors.New("max_tokens must be positive")
	}
	if c.StorageDir == "" {
		return errors.New("storage_dir is required")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.New("confidence_threshold must be in [0,1]")
	}
	switch c.ReviewDepth {
	case ReviewDepthQuick, ReviewDepthStandard, ReviewDepthDeep:
	default:
		return fmt.Errorf("review_depth must be one of quick|standard|deep, got %q", c.ReviewDepth)
	}
	return nil
}

// Load reads the configuration hierarchy: env vars > config file > defaults.
// Command-line flags take part only through the environment: the caller
// writes them into their ARGUS_-prefixed variables before Load is invoked.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("argus")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.argus")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded configuration", "file", v.ConfigFileUsed())
	}

	v.SetEnvPrefix("ARGUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "")
	v.SetDefault("max_tokens", 32000)
	v.SetDefault("storage_dir", "./.argus-cache")
	v.SetDefault("embedding_model", "")
	v.SetDefault("search_related_issues", false)
	v.SetDefault("confidence_threshold", 0.5)
	v.SetDefault("review_depth", string(ReviewDepthStandard))
	v.SetDefault("ignored_paths", []string{"vendor/**", "node_modules/**", ".git/**"})
	v.SetDefault("enable_agentic", false)
	v.SetDefault("extra_extensions", []string{})
	v.SetDefault("index.analyze_patterns", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}
