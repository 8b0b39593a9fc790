package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-github/v73/github"
)

// ReviewTarget is the review-mode input resolved from the triggering
// event: which pull request to review and at which head commit.
type ReviewTarget struct {
	Owner    string
	Repo     string
	Number   int
	HeadSHA  string
	CloneURL string
}

// ReviewTargetFromPayload reads ARGUS_EVENT_PAYLOAD_PATH (spec §6 secrets
// surface) and extracts the fields review mode needs, the same
// anti-corruption-layer approach the host-platform webhook handler uses to
// turn a raw event into a typed domain value rather than threading
// go-github types through the rest of the call chain.
func ReviewTargetFromPayload(path string) (*ReviewTarget, error) {
	if path == "" {
		return nil, fmt.Errorf("ARGUS_EVENT_PAYLOAD_PATH is required for review mode")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event payload %q: %w", path, err)
	}

	var event github.PullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("parse event payload as a pull_request event: %w", err)
	}

	pr := event.GetPullRequest()
	repo := event.GetRepo()
	if pr == nil || repo == nil || repo.GetOwner() == nil {
		return nil, fmt.Errorf("event payload %q is missing pull_request or repository fields", path)
	}

	return &ReviewTarget{
		Owner:    repo.GetOwner().GetLogin(),
		Repo:     repo.GetName(),
		Number:   pr.GetNumber(),
		HeadSHA:  pr.GetHead().GetSHA(),
		CloneURL: repo.GetCloneURL(),
	}, nil
}
