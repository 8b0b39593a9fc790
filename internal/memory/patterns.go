package memory

import (
	"sort"

	"github.com/sevigo/argus/internal/core"
)

// patternKey identifies a pattern entry for merge purposes: spec §4.7's
// merge policy keys on "identical (category, description)".
type patternKey struct {
	category    PatternCategory
	description string
}

// MergePatterns applies spec §4.7's incremental merge policy: identical
// (category, description) entries keep the higher-confidence version, new
// entries are appended, and the result is re-pruned and re-sorted.
// existing is never mutated.
func MergePatterns(existing []PatternEntry, candidates []core.PatternCandidate) []PatternEntry {
	merged := append([]PatternEntry(nil), existing...)
	index := make(map[patternKey]int, len(merged))
	for i, e := range merged {
		index[patternKey{e.Category, e.Description}] = i
	}

	for _, c := range candidates {
		entry := PatternEntry{
			Category:    PatternCategory(c.Category),
			Description: c.Description,
			Confidence:  c.Confidence,
			Examples:    c.Examples,
		}
		key := patternKey{entry.Category, entry.Description}
		if i, ok := index[key]; ok {
			if entry.Confidence > merged[i].Confidence {
				merged[i] = entry
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, entry)
	}

	return prune(merged)
}

// prune implements spec §4.7's storage invariants: drop entries below
// MinPatternConfidence, then keep at most MaxPatterns, sorted descending
// by confidence.
func prune(entries []PatternEntry) []PatternEntry {
	kept := make([]PatternEntry, 0, len(entries))
	for _, e := range entries {
		if e.Confidence >= MinPatternConfidence {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		return kept[i].Description < kept[j].Description
	})
	if len(kept) > MaxPatterns {
		kept = kept[:MaxPatterns]
	}
	return kept
}
