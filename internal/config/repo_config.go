package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrRepoConfigNotFound = errors.New("repo config file not found")
	ErrRepoConfigParsing  = errors.New("repo config parsing failed")
)

// RepoConfig is the subset of Config a repository may override via a
// `.argus.yml` file committed at its root, layered on top of the process
// Config by the caller (repo overrides win).
type RepoConfig struct {
	IgnoredPaths        []string    `yaml:"ignored_paths"`
	ReviewDepth         ReviewDepth `yaml:"review_depth"`
	ConfidenceThreshold *float64    `yaml:"confidence_threshold"`
}

// LoadRepoConfig reads `.argus.yml` from the repository root, if present.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	configPath := filepath.Join(repoPath, ".argus.yml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, ErrRepoConfigNotFound
		}
		return nil, fmt.Errorf("read .argus.yml: %w", err)
	}

	var repoCfg RepoConfig
	if err := yaml.Unmarshal(data, &repoCfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	return &repoCfg, nil
}

// Merge overlays non-zero repo-level overrides onto a copy of base.
func (c *Config) Merge(repo *RepoConfig) Config {
	merged := *c
	if len(repo.IgnoredPaths) > 0 {
		merged.IgnoredPaths = repo.IgnoredPaths
	}
	if repo.ReviewDepth != "" {
		merged.ReviewDepth = repo.ReviewDepth
	}
	if repo.ConfidenceThreshold != nil {
		merged.ConfidenceThreshold = *repo.ConfidenceThreshold
	}
	return merged
}
