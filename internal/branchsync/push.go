package branchsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/shardstore"
)

// Artifacts is everything a push writes to the branch in one commit: the
// manifest, the shard blobs that changed (unchanged ones are reused by
// content hash), and the optional memory/embeddings side files.
type Artifacts struct {
	Manifest      *shardstore.Manifest
	ChangedBlobs  map[string]shardstore.ShardBlob // blob name -> content, new/changed only
	OptionalFiles map[string][]byte               // e.g. "<hash>_memory.json" -> bytes
	CommitMessage string
}

// Push writes artifacts on top of the session's frozen tree, reusing any
// blob already present under the same content-addressed name, and commits
// with a compare-and-swap ref update (spec §4.4 "Push protocol"). It
// retries exactly once on a non-fast-forward race, re-pulling the ref and
// re-running fn to recompute artifacts against the new base; a second
// failure surfaces *core.ConcurrentWriteError.
func (c *Client) Push(ctx context.Context, sess *Session, fn func(*Session) (*Artifacts, error)) error {
	for attempt := 0; attempt < 2; attempt++ {
		artifacts, err := fn(sess)
		if err != nil {
			return err
		}

		err = c.pushOnce(ctx, sess, artifacts)
		if err == nil {
			return nil
		}

		var raceErr *nonFastForwardError
		if !asNonFastForward(err, &raceErr) || attempt == 1 {
			if raceErr != nil {
				return &core.ConcurrentWriteError{Ref: branchRef, Expected: raceErr.expected, Actual: raceErr.actual}
			}
			return err
		}

		sess, err = c.Pull(ctx)
		if err != nil {
			return fmt.Errorf("re-pull after concurrent write: %w", err)
		}
	}
	return nil
}

type nonFastForwardError struct {
	expected, actual string
}

func (e *nonFastForwardError) Error() string {
	return fmt.Sprintf("ref moved: expected parent %s, branch is at %s", e.expected, e.actual)
}

func asNonFastForward(err error, out **nonFastForwardError) bool {
	nff, ok := err.(*nonFastForwardError)
	if ok {
		*out = nff
	}
	return ok
}

func (c *Client) pushOnce(ctx context.Context, sess *Session, artifacts *Artifacts) error {
	entries := make([]*github.TreeEntry, 0, len(artifacts.ChangedBlobs)+len(artifacts.OptionalFiles)+1)

	manifestBytes, err := shardstore.MarshalManifest(artifacts.Manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	entries, err = c.appendBlobEntry(ctx, sess, entries, manifestPath, manifestBytes)
	if err != nil {
		return err
	}

	for name, blob := range artifacts.ChangedBlobs {
		raw, err := shardstore.MarshalShardBlob(blob)
		if err != nil {
			return fmt.Errorf("marshal shard blob %q: %w", name, err)
		}
		entries, err = c.appendBlobEntry(ctx, sess, entries, name, raw)
		if err != nil {
			return err
		}
	}

	for name, raw := range artifacts.OptionalFiles {
		entries, err = c.appendBlobEntry(ctx, sess, entries, name, raw)
		if err != nil {
			return err
		}
	}

	if len(entries) == 0 {
		return nil
	}

	var baseTree string
	if sess.tree.treeSHA != "" {
		baseTree = sess.tree.treeSHA
	}
	tree, _, err := c.git.CreateTree(ctx, c.owner, c.repo, baseTree, entries)
	if err != nil {
		return fmt.Errorf("create tree: %w", err)
	}

	msg := artifacts.CommitMessage
	if msg == "" {
		msg = "argus: update codebase map"
	}
	commit := &github.Commit{
		Message: github.Ptr(msg),
		Tree:    tree,
	}
	var opts *github.CreateCommitOptions
	if sess.tree.commitSHA != "" {
		opts = &github.CreateCommitOptions{}
		commit.Parents = []*github.Commit{{SHA: github.Ptr(sess.tree.commitSHA)}}
	}
	newCommit, _, err := c.git.CreateCommit(ctx, c.owner, c.repo, commit, opts)
	if err != nil {
		return fmt.Errorf("create commit: %w", err)
	}

	ref := &github.Reference{
		Ref:    github.Ptr(branchRef),
		Object: &github.GitObject{SHA: newCommit.SHA},
	}

	if sess.tree.commitSHA == "" {
		if _, _, err := c.git.CreateRef(ctx, c.owner, c.repo, ref); err != nil {
			return fmt.Errorf("create ref %s: %w", branchRef, err)
		}
		return nil
	}

	_, resp, err := c.git.UpdateRef(ctx, c.owner, c.repo, ref, false)
	if err != nil {
		if resp != nil && (resp.StatusCode == 422 || resp.StatusCode == 409) {
			return &nonFastForwardError{expected: sess.tree.commitSHA, actual: "unknown"}
		}
		return fmt.Errorf("update ref %s: %w", branchRef, err)
	}
	return nil
}

// appendBlobEntry skips creating a blob for a shard path that is already
// present in the frozen tree under the same name: shard blob names are
// content-addressed (shard_<hash>.json), so an existing entry at that path
// is guaranteed byte-identical and the existing blob SHA can be reused
// directly (spec §4.4 "write only the shards that changed"). manifest.json
// and the optional side files are not content-addressed and are always
// rewritten.
func (c *Client) appendBlobEntry(ctx context.Context, sess *Session, entries []*github.TreeEntry, path string, content []byte) ([]*github.TreeEntry, error) {
	if path != manifestPath && strings.HasPrefix(path, "shard_") {
		if existingSHA, ok := sess.tree.entries[path]; ok {
			return append(entries, &github.TreeEntry{
				Path: github.Ptr(path),
				Mode: github.Ptr("100644"),
				Type: github.Ptr("blob"),
				SHA:  github.Ptr(existingSHA),
			}), nil
		}
	}

	blob, _, err := c.git.CreateBlob(ctx, c.owner, c.repo, &github.Blob{
		Content:  github.Ptr(string(content)),
		Encoding: github.Ptr("utf-8"),
	})
	if err != nil {
		return nil, fmt.Errorf("create blob for %q: %w", path, err)
	}

	return append(entries, &github.TreeEntry{
		Path: github.Ptr(path),
		Mode: github.Ptr("100644"),
		Type: github.Ptr("blob"),
		SHA:  blob.SHA,
	}), nil
}
