package app

import (
	"fmt"
	"os"

	"github.com/sevigo/argus/internal/ids"
)

// Mode is the closed set of entry points spec §6 dispatches on.
type Mode string

const (
	ModeBootstrap Mode = "bootstrap"
	ModeIndex     Mode = "index"
	ModeReview    Mode = "review"
)

// ModeFromEnv reads the mode selector from the environment (spec §6:
// "Mode is read from the environment at startup").
func ModeFromEnv() (Mode, error) {
	raw := os.Getenv("ARGUS_MODE")
	switch Mode(raw) {
	case ModeBootstrap, ModeIndex, ModeReview:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("ARGUS_MODE must be one of bootstrap|index|review, got %q", raw)
	}
}

// TargetSHA reads the commit a bootstrap or index run builds against: the
// triggering commit of a CI invocation (e.g. GitHub Actions' GITHUB_SHA).
// It is read alongside the mode selector itself rather than folded into
// config.Secrets, since it is neither a repository secret nor a reviewable
// configuration key — just the other half of "what to do" that the
// environment supplies at startup.
func TargetSHA() (ids.CommitSHA, error) {
	raw := os.Getenv("ARGUS_TARGET_SHA")
	sha := ids.CommitSHA(raw)
	if !sha.Valid() {
		return "", fmt.Errorf("ARGUS_TARGET_SHA must be a 40-character commit SHA, got %q", raw)
	}
	return sha, nil
}
