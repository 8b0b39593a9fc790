package config

import (
	"fmt"
	"os"
)

// Secrets holds the process-environment-only values spec §6 names: the host
// API token, LLM provider key(s), the repository identifier, and the
// event-payload path. None of these are ever part of Config, never written
// to disk, and never marshaled into any persisted artifact.
type Secrets struct {
	GitHubToken     string
	LLMAPIKey       string
	RepositorySlug  string // "owner/repo"
	EventPayloadPath string
}

// LoadSecrets reads the secrets surface straight from the environment.
func LoadSecrets() (*Secrets, error) {
	s := &Secrets{
		GitHubToken:      os.Getenv("ARGUS_GITHUB_TOKEN"),
		LLMAPIKey:        os.Getenv("ARGUS_LLM_API_KEY"),
		RepositorySlug:   os.Getenv("ARGUS_REPOSITORY"),
		EventPayloadPath: os.Getenv("ARGUS_EVENT_PAYLOAD_PATH"),
	}
	if s.GitHubToken == "" {
		return nil, fmt.Errorf("ARGUS_GITHUB_TOKEN is required")
	}
	if s.RepositorySlug == "" {
		return nil, fmt.Errorf("ARGUS_REPOSITORY is required")
	}
	return s, nil
}
