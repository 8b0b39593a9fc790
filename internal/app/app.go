// Package app is argus's composition root: it wires the host API client,
// the branch-sync store, the local git checkout, the retrieval and memory
// layers, and the opaque LLM boundary into the three mode entry points
// cmd/argus dispatches to (spec §6 "Mode surface").
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v73/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sevigo/argus/internal/branchsync"
	"github.com/sevigo/argus/internal/config"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ghclient"
	"github.com/sevigo/argus/internal/gitutil"
	"github.com/sevigo/argus/internal/indexer"
	"github.com/sevigo/argus/internal/localcache"
	"github.com/sevigo/argus/internal/parser"
)

// App holds every dependency a mode entry point needs. The opaque LLM
// boundary fields (Generator, Embedder, PatternAnalyzer, AgenticSession,
// AgenticTools) are left nil by New: this module names the contracts a
// provider must satisfy (internal/core) but ships no concrete provider, so
// wiring one in is left to whatever process embeds argus as a library.
// Cache is nil whenever no local cache database is configured in the
// environment; every caller must tolerate that (spec §1 Non-goals:
// "durability beyond what the hosting repository's branch provides" — the
// cache is strictly an optimization, never load-bearing).
type App struct {
	Cfg     *config.Config
	Secrets *config.Secrets
	Logger  *slog.Logger

	GitHub     ghclient.Client
	BranchSync *branchsync.Client
	Git        *gitutil.Client
	Cache      localcache.Store

	Generator       core.Generator
	Embedder        core.EmbeddingProvider
	PatternAnalyzer core.PatternAnalyzer
	AgenticSession  core.AgenticSession
	AgenticTools    core.AgenticTools

	owner, repo string
}

// New authenticates against the host API with the process's personal
// access token (spec §6 secrets surface carries a single host token; the
// GitHub App installation path in ghclient.CreateInstallationClient is
// available to an embedding process that has app credentials instead, but
// is not wired here). The returned cleanup func closes the local cache
// connection, if one was opened; it is always safe to call.
func New(ctx context.Context, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) (*App, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	owner, repo, err := splitSlug(secrets.RepositorySlug)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid ARGUS_REPOSITORY: %w", err)
	}

	runLogger := logger.With("run_id", uuid.NewString(), "repo", secrets.RepositorySlug)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secrets.GitHubToken})
	tc := oauth2.NewClient(ctx, ts)
	raw := github.NewClient(tc)

	a := &App{
		Cfg:        cfg,
		Secrets:    secrets,
		Logger:     runLogger,
		GitHub:     ghclient.NewGitHubClient(raw, runLogger),
		BranchSync: branchsync.New(raw.Git, owner, repo),
		Git:        gitutil.NewClient(runLogger),
		owner:      owner,
		repo:       repo,
	}

	cleanup := func() {}
	if dbCfg, ok := localcache.ConfigFromEnv(); ok {
		db, dbCleanup, err := localcache.Open(dbCfg)
		if err != nil {
			runLogger.Warn("local cache unavailable, continuing without it", "error", err)
		} else {
			a.Cache = localcache.NewStore(db)
			cleanup = dbCleanup
		}
	}

	return a, cleanup, nil
}

// splitSlug parses "owner/repo" the way spec §6's secrets surface defines
// ARGUS_REPOSITORY.
func splitSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected \"owner/repo\", got %q", slug)
	}
	return parts[0], parts[1], nil
}

func (a *App) cloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", a.owner, a.repo)
}

// indexOptions builds the indexer.Options shared by full and incremental
// builds. extra_extensions entries have the form "ext=language" (e.g.
// ".vue=javascript"); malformed entries are skipped with a warning rather
// than failing the run, since a single bad config line shouldn't block
// indexing the rest of the repository.
func (a *App) indexOptions() indexer.Options {
	extra := make(map[string]parser.Language, len(a.Cfg.ExtraExtensions))
	for _, raw := range a.Cfg.ExtraExtensions {
		ext, lang, ok := strings.Cut(raw, "=")
		if !ok || ext == "" || lang == "" {
			a.Logger.Warn("skipping malformed extra_extensions entry", "entry", raw)
			continue
		}
		extra[ext] = parser.Language(lang)
	}
	return indexer.Options{
		IgnoreGlobs:     a.Cfg.IgnoredPaths,
		ExtraExtensions: extra,
	}
}
