// Package indexer implements the full and incremental build of a
// CodebaseMap from a file set and, for incremental builds, a prior map
// (spec §4.2).
package indexer

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sevigo/argus/internal/ids"
)

// walk lists every regular file under root, excluding anything matched by
// an ignore glob, in lexicographic path order.
func walk(root string, ignoreGlobs []string) ([]ids.FilePath, error) {
	var out []ids.FilePath
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == ".git" || matchesAny(ignoreGlobs, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(ignoreGlobs, rel) {
			return nil
		}
		fp, normErr := ids.Normalize(rel)
		if normErr != nil {
			return nil
		}
		out = append(out, fp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
