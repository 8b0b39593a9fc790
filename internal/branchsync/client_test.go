package branchsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
	"github.com/sevigo/argus/internal/shardstore"
)

// fakeGitData is an in-memory stand-in for google/go-github's Git Data API,
// just enough of it to drive the pull/push protocols under test.
type fakeGitData struct {
	refs    map[string]string // ref -> commit SHA
	commits map[string]*github.Commit
	trees   map[string]*github.Tree
	blobs   map[string][]byte

	failRefMissing bool
	injectRace     bool // simulate a ref that moved between read and write
}

func newFakeGitData() *fakeGitData {
	return &fakeGitData{
		refs:    map[string]string{},
		commits: map[string]*github.Commit{},
		trees:   map[string]*github.Tree{},
		blobs:   map[string][]byte{},
	}
}

func blobSHA(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (f *fakeGitData) GetRef(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error) {
	sha, ok := f.refs[ref]
	if !ok {
		return nil, &github.Response{Response: &http.Response{StatusCode: 404}}, fmt.Errorf("not found")
	}
	return &github.Reference{Ref: github.Ptr(ref), Object: &github.GitObject{SHA: github.Ptr(sha)}}, &github.Response{Response: &http.Response{StatusCode: 200}}, nil
}

func (f *fakeGitData) GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error) {
	// Like the real API, accept a commit SHA and resolve it to its tree.
	if c, ok := f.commits[sha]; ok {
		sha = c.GetTree().GetSHA()
	}
	t, ok := f.trees[sha]
	if !ok {
		return nil, nil, fmt.Errorf("tree %s not found", sha)
	}
	return t, &github.Response{Response: &http.Response{StatusCode: 200}}, nil
}

func (f *fakeGitData) GetBlobRaw(ctx context.Context, owner, repo, sha string) ([]byte, *github.Response, error) {
	data, ok := f.blobs[sha]
	if !ok {
		return nil, nil, fmt.Errorf("blob %s not found", sha)
	}
	return data, &github.Response{Response: &http.Response{StatusCode: 200}}, nil
}

func (f *fakeGitData) CreateBlob(ctx context.Context, owner, repo string, blob *github.Blob) (*github.Blob, *github.Response, error) {
	content := []byte(blob.GetContent())
	sha := blobSHA(content)
	f.blobs[sha] = content
	blob.SHA = github.Ptr(sha)
	return blob, &github.Response{Response: &http.Response{StatusCode: 201}}, nil
}

func (f *fakeGitData) CreateTree(ctx context.Context, owner, repo, baseTree string, entries []*github.TreeEntry) (*github.Tree, *github.Response, error) {
	merged := map[string]string{}
	if base, ok := f.trees[baseTree]; ok {
		for _, e := range base.Entries {
			merged[e.GetPath()] = e.GetSHA()
		}
	}
	for _, e := range entries {
		merged[e.GetPath()] = e.GetSHA()
	}
	var all []*github.TreeEntry
	for p, sha := range merged {
		all = append(all, &github.TreeEntry{Path: github.Ptr(p), SHA: github.Ptr(sha), Mode: github.Ptr("100644"), Type: github.Ptr("blob")})
	}
	treeSHA := fmt.Sprintf("tree-%d", len(f.trees)+1)
	tree := &github.Tree{SHA: github.Ptr(treeSHA), Entries: all}
	f.trees[treeSHA] = tree
	return tree, &github.Response{Response: &http.Response{StatusCode: 201}}, nil
}

func (f *fakeGitData) CreateCommit(ctx context.Context, owner, repo string, commit *github.Commit, opts *github.CreateCommitOptions) (*github.Commit, *github.Response, error) {
	commitSHA := fmt.Sprintf("commit-%d", len(f.commits)+1)
	commit.SHA = github.Ptr(commitSHA)
	f.commits[commitSHA] = commit
	return commit, &github.Response{Response: &http.Response{StatusCode: 201}}, nil
}

func (f *fakeGitData) UpdateRef(ctx context.Context, owner, repo string, ref *github.Reference, force bool) (*github.Reference, *github.Response, error) {
	if f.injectRace {
		f.injectRace = false
		return nil, &github.Response{Response: &http.Response{StatusCode: 422}}, fmt.Errorf("update is not a fast forward")
	}
	f.refs[ref.GetRef()] = ref.GetObject().GetSHA()
	return ref, &github.Response{Response: &http.Response{StatusCode: 200}}, nil
}

func (f *fakeGitData) CreateRef(ctx context.Context, owner, repo string, ref *github.Reference) (*github.Reference, *github.Response, error) {
	f.refs[ref.GetRef()] = ref.GetObject().GetSHA()
	return ref, &github.Response{Response: &http.Response{StatusCode: 201}}, nil
}

func sampleMap() *codemap.CodebaseMap {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a/x.py": {Path: "a/x.py", Symbols: []codemap.Symbol{{Name: "f", QualifiedName: "f"}}},
	}
	return codemap.New("deadbeef00000000000000000000000000000000", entries, nil)
}

func TestPullEmptyBranchFallsBackGracefully(t *testing.T) {
	fake := newFakeGitData()
	client := New(fake, "acme", "widgets")

	sess, err := client.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if !sess.IsLegacy() {
		t.Errorf("expected legacy fallback on an empty branch, got manifest %+v", sess.Manifest())
	}
}

func TestPushThenPullRoundTrip(t *testing.T) {
	fake := newFakeGitData()
	client := New(fake, "acme", "widgets")
	ctx := context.Background()

	sess, err := client.Pull(ctx)
	if err != nil {
		t.Fatalf("initial pull: %v", err)
	}

	m := sampleMap()
	manifest, blobs, err := shardstore.Shard(m, nil)
	if err != nil {
		t.Fatalf("Shard: %v", err)
	}

	err = client.Push(ctx, sess, func(*Session) (*Artifacts, error) {
		return &Artifacts{Manifest: manifest, ChangedBlobs: blobs}, nil
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	sess2, err := client.Pull(ctx)
	if err != nil {
		t.Fatalf("re-pull: %v", err)
	}
	if sess2.IsLegacy() {
		t.Fatalf("expected a manifest after push, got legacy")
	}
	if len(sess2.Manifest().Shards) != len(manifest.Shards) {
		t.Errorf("shard count mismatch after round trip: got %d want %d", len(sess2.Manifest().Shards), len(manifest.Shards))
	}

	for name, desc := range sess2.Manifest().Shards {
		blob, err := sess2.FetchShardBlob(ctx, desc.BlobName)
		if err != nil {
			t.Fatalf("FetchShardBlob(%s): %v", name, err)
		}
		if len(blob.Entries) == 0 {
			t.Errorf("shard %s round-tripped with no entries", name)
		}
	}
}

func TestPushSurfacesConcurrentWriteErrorAfterRetryFails(t *testing.T) {
	fake := newFakeGitData()
	client := New(fake, "acme", "widgets")
	ctx := context.Background()

	m := sampleMap()
	manifest, blobs, err := shardstore.Shard(m, nil)
	if err != nil {
		t.Fatalf("Shard: %v", err)
	}

	// Establish an initial commit on the branch so the next push goes
	// through the CAS UpdateRef path rather than the first-ever CreateRef.
	bootSess, err := client.Pull(ctx)
	if err != nil {
		t.Fatalf("bootstrap pull: %v", err)
	}
	if err := client.Push(ctx, bootSess, func(*Session) (*Artifacts, error) {
		return &Artifacts{Manifest: manifest, ChangedBlobs: blobs}, nil
	}); err != nil {
		t.Fatalf("bootstrap push: %v", err)
	}

	sess, err := client.Pull(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}

	calls := 0
	fake.injectRace = true
	err = client.Push(ctx, sess, func(s *Session) (*Artifacts, error) {
		calls++
		fake.injectRace = true // keep racing on the retry too
		return &Artifacts{Manifest: manifest, ChangedBlobs: blobs}, nil
	})
	if err == nil {
		t.Fatalf("expected an error after the retry also races")
	}
	var cwe *core.ConcurrentWriteError
	if !isConcurrentWriteError(err, &cwe) {
		t.Fatalf("expected *core.ConcurrentWriteError, got %T: %v", err, err)
	}
	if calls != 2 {
		t.Errorf("expected exactly one retry (2 calls total), got %d", calls)
	}
}

func isConcurrentWriteError(err error, out **core.ConcurrentWriteError) bool {
	cwe, ok := err.(*core.ConcurrentWriteError)
	if ok {
		*out = cwe
	}
	return ok
}

func TestDirtyShardsIntersectsChangedPaths(t *testing.T) {
	m := sampleMap()
	manifest, _, err := shardstore.Shard(m, nil)
	if err != nil {
		t.Fatalf("Shard: %v", err)
	}
	dirty := DirtyShards(manifest, []ids.FilePath{"a/x.py"})
	if !dirty["a"] {
		t.Errorf("expected shard %q dirty, got %v", "a", dirty)
	}
	if len(dirty) != 1 {
		t.Errorf("expected exactly one dirty shard, got %v", dirty)
	}
}
