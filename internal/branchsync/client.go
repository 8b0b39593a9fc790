// Package branchsync persists CodebaseMap artifacts on an orphan branch of
// the reviewed repository (spec §4.4), using the host's Git Data API for
// both reading (tree listing + blob fetch) and writing (tree + commit +
// CAS ref update).
package branchsync

import (
	"context"
	"fmt"

	"github.com/google/go-github/v73/github"
)

const branchRef = "refs/heads/argus-data"

// GitDataService is the subset of google/go-github's Git Data API the sync
// protocol needs. Narrowed to an interface so tests can fake it.
type GitDataService interface {
	GetRef(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error)
	GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error)
	GetBlobRaw(ctx context.Context, owner, repo, sha string) ([]byte, *github.Response, error)
	CreateBlob(ctx context.Context, owner, repo string, blob *github.Blob) (*github.Blob, *github.Response, error)
	CreateTree(ctx context.Context, owner, repo, baseTree string, entries []*github.TreeEntry) (*github.Tree, *github.Response, error)
	CreateCommit(ctx context.Context, owner, repo string, commit *github.Commit, opts *github.CreateCommitOptions) (*github.Commit, *github.Response, error)
	UpdateRef(ctx context.Context, owner, repo string, ref *github.Reference, force bool) (*github.Reference, *github.Response, error)
	CreateRef(ctx context.Context, owner, repo string, ref *github.Reference) (*github.Reference, *github.Response, error)
}

// Client drives the pull/push protocols against one repository's argus-data
// branch.
type Client struct {
	git   GitDataService
	owner string
	repo  string
}

// New creates a branch-sync client for owner/repo.
func New(git GitDataService, owner, repo string) *Client {
	return &Client{git: git, owner: owner, repo: repo}
}

// treeCache is frozen for the lifetime of one run (spec §4.4 "Ordering
// guarantees": the branch ref is read once, and the tree cache is frozen).
type treeCache struct {
	commitSHA string
	treeSHA   string
	entries   map[string]string // path -> blob SHA
}

func (c *Client) fetchTree(ctx context.Context) (*treeCache, error) {
	ref, resp, err := c.git.GetRef(ctx, c.owner, c.repo, branchRef)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return &treeCache{entries: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("get ref %s: %w", branchRef, err)
	}

	commitSHA := ref.GetObject().GetSHA()
	tree, _, err := c.git.GetTree(ctx, c.owner, c.repo, commitSHA, true)
	if err != nil {
		return nil, fmt.Errorf("get tree for commit %s: %w", commitSHA, err)
	}

	entries := make(map[string]string, len(tree.Entries))
	for _, e := range tree.Entries {
		entries[e.GetPath()] = e.GetSHA()
	}
	return &treeCache{commitSHA: commitSHA, treeSHA: tree.GetSHA(), entries: entries}, nil
}

func (c *Client) fetchBlobBytes(ctx context.Context, sha string) ([]byte, error) {
	data, _, err := c.git.GetBlobRaw(ctx, c.owner, c.repo, sha)
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", sha, err)
	}
	return data, nil
}
