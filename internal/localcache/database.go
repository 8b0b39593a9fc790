package localcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/argus/internal/ids"
)

// ErrNotFound is returned when a repository has no recorded watermark yet.
var ErrNotFound = errors.New("watermark not found")

// Watermark is one repository's cached sync state: the manifest SHA argus
// last pulled, and the commit SHAs the indexing and pattern-analysis
// watermarks last advanced to (spec §4.7 draws analyzed_at and indexed_at
// as independent; this cache mirrors both so a run can cheaply decide
// whether index or bootstrap mode has any work to do before ever touching
// the network).
type Watermark struct {
	RepoFullName          string         `db:"repo_full_name"`
	LastPulledManifestSHA string         `db:"last_pulled_manifest_sha"`
	LastIndexedSHA        ids.CommitSHA  `db:"last_indexed_sha"`
	LastAnalyzedSHA       ids.CommitSHA  `db:"last_analyzed_sha"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

// Store is the local cache's single table of operations.
type Store interface {
	GetWatermark(ctx context.Context, repoFullName string) (*Watermark, error)
	UpsertWatermark(ctx context.Context, w *Watermark) error
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore wraps an open *DB as a Store.
func NewStore(db *DB) Store {
	return &postgresStore{db: db.DB}
}

func (s *postgresStore) GetWatermark(ctx context.Context, repoFullName string) (*Watermark, error) {
	const query = `
		SELECT repo_full_name, last_pulled_manifest_sha, last_indexed_sha, last_analyzed_sha, updated_at
		FROM repo_watermarks
		WHERE repo_full_name = $1`

	var w Watermark
	err := s.db.GetContext(ctx, &w, query, repoFullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get watermark for %q: %w", repoFullName, err)
	}
	return &w, nil
}

func (s *postgresStore) UpsertWatermark(ctx context.Context, w *Watermark) error {
	const query = `
		INSERT INTO repo_watermarks (repo_full_name, last_pulled_manifest_sha, last_indexed_sha, last_analyzed_sha, updated_at)
		VALUES (:repo_full_name, :last_pulled_manifest_sha, :last_indexed_sha, :last_analyzed_sha, NOW())
		ON CONFLICT (repo_full_name)
		DO UPDATE SET
			last_pulled_manifest_sha = EXCLUDED.last_pulled_manifest_sha,
			last_indexed_sha = EXCLUDED.last_indexed_sha,
			last_analyzed_sha = EXCLUDED.last_analyzed_sha,
			updated_at = NOW()`

	_, err := s.db.NamedExecContext(ctx, query, w)
	if err != nil {
		return fmt.Errorf("upsert watermark for %q: %w", w.RepoFullName, err)
	}
	return nil
}
