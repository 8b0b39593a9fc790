package retrieval

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sevigo/argus/internal/chunk"
	"github.com/sevigo/argus/internal/codemap"
)

const (
	bm25K1      = 1.2
	bm25B       = 0.75
	lexicalTopK = 20
)

// LexicalStrategy indexes the loaded map's code chunks into a BM25-style
// inverted index over identifier-split tokens, built lazily per run and
// discarded after Retrieve returns (spec §4.5).
type LexicalStrategy struct {
	Map    *codemap.CodebaseMap
	Source SourceProvider
}

func (s *LexicalStrategy) Name() StrategyName { return StrategyLexical }

func (s *LexicalStrategy) Retrieve(ctx context.Context, query RetrievalQuery) ([]ContextItem, error) {
	if s.Map == nil || s.Source == nil {
		return nil, nil
	}

	chunks, err := s.collectChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	idx := buildIndex(chunks)
	queryTokens := tokenizeQuery(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	scores := idx.score(queryTokens)
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].doc < scores[j].doc
	})
	if len(scores) > lexicalTopK {
		scores = scores[:lexicalTopK]
	}

	maxScore := 0.0
	for _, sc := range scores {
		if sc.score > maxScore {
			maxScore = sc.score
		}
	}
	if maxScore == 0 {
		return nil, nil
	}

	items := make([]ContextItem, 0, len(scores))
	for _, sc := range scores {
		c := chunks[sc.doc]
		items = append(items, ContextItem{
			SourceStrategy: StrategyLexical,
			FilePath:       c.FilePath,
			LineRange:      c.LineRange,
			Text:           c.Text,
			Score:          sc.score / maxScore,
			Fingerprint:    Fingerprint(c.FilePath, c.LineRange),
		})
	}
	return items, nil
}

func (s *LexicalStrategy) collectChunks(ctx context.Context) ([]chunk.CodeChunk, error) {
	var out []chunk.CodeChunk
	for path, entry := range s.Map.Entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		source, err := s.Source.ReadFile(ctx, path)
		if err != nil {
			continue // unreadable source degrades to "no chunks from this file"
		}
		out = append(out, chunk.Split(entry, source)...)
	}
	return out, nil
}

// invertedIndex is a BM25 posting-list index over a fixed set of documents
// (code chunks), built once per Retrieve call and discarded afterward.
type invertedIndex struct {
	postings map[string]map[int]int // token -> docID -> term frequency
	docLen   []int
	avgLen   float64
	n        int
}

func buildIndex(chunks []chunk.CodeChunk) *invertedIndex {
	idx := &invertedIndex{
		postings: make(map[string]map[int]int),
		docLen:   make([]int, len(chunks)),
		n:        len(chunks),
	}
	var totalLen int
	for docID, c := range chunks {
		tokens := tokenize(c.Text)
		idx.docLen[docID] = len(tokens)
		totalLen += len(tokens)
		for _, tok := range tokens {
			if idx.postings[tok] == nil {
				idx.postings[tok] = make(map[int]int)
			}
			idx.postings[tok][docID]++
		}
	}
	if idx.n > 0 {
		idx.avgLen = float64(totalLen) / float64(idx.n)
	}
	return idx
}

type docScore struct {
	doc   int
	score float64
}

func (idx *invertedIndex) score(queryTokens []string) []docScore {
	accum := make(map[int]float64)
	for _, tok := range dedupe(queryTokens) {
		posting, ok := idx.postings[tok]
		if !ok {
			continue
		}
		idf := math.Log(1 + (float64(idx.n)-float64(len(posting))+0.5)/(float64(len(posting))+0.5))
		for docID, freq := range posting {
			dl := float64(idx.docLen[docID])
			denom := float64(freq) + bm25K1*(1-bm25B+bm25B*dl/maxFloat(idx.avgLen, 1))
			accum[docID] += idf * (float64(freq) * (bm25K1 + 1)) / denom
		}
	}
	out := make([]docScore, 0, len(accum))
	for doc, sc := range accum {
		if sc <= 0 {
			continue
		}
		out = append(out, docScore{doc: doc, score: sc})
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*`)

// tokenizeQuery builds the lexical query from changed_symbols union the
// identifiers extracted from diff_text (spec §4.5).
func tokenizeQuery(query RetrievalQuery) []string {
	var raw []string
	raw = append(raw, query.ChangedSymbols...)
	raw = append(raw, identifierPattern.FindAllString(query.DiffText, -1)...)

	var tokens []string
	for _, r := range raw {
		tokens = append(tokens, tokenize(r)...)
	}
	return tokens
}

// tokenize splits text into lowercase sub-tokens, breaking on whitespace and
// punctuation first, then splitting each resulting identifier on
// camelCase, snake_case, and dot-paths (spec §4.5).
func tokenize(text string) []string {
	var tokens []string
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r == '_' || r == '.' || r == '-' || isAlnum(r))
	}) {
		tokens = append(tokens, splitIdentifier(word)...)
	}
	return tokens
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func splitIdentifier(word string) []string {
	word = strings.Trim(word, "-")
	if word == "" {
		return nil
	}
	var parts []string
	for _, dotPart := range strings.Split(word, ".") {
		parts = append(parts, splitCase(dotPart)...)
	}
	var out []string
	for _, p := range parts {
		p = strings.ToLower(strings.Trim(p, "_"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitCase splits camelCase and snake_case boundaries within one segment.
func splitCase(s string) []string {
	var sub []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r == '_' {
			if cur.Len() > 0 {
				sub = append(sub, cur.String())
				cur.Reset()
			}
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
			if cur.Len() > 0 {
				sub = append(sub, cur.String())
				cur.Reset()
			}
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		sub = append(sub, cur.String())
	}
	return sub
}
