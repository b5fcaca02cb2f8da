package index

import (
	"context"
	"math"
	"sort"

	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/store"
)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Lexical ranks records by BM25 term overlap over an inverted index.
// Requires no external dependencies.
type Lexical struct {
	postings  map[string]map[string]int // term -> record ID -> term frequency
	docLens   map[string]int
	avgDocLen float64
	docCount  int
	meta      labelSet
	built     bool
}

// NewLexical creates an unbuilt lexical backend.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Build tokenizes every record and constructs the inverted index. All
// derived state is assembled locally and swapped in at the end, so a
// rebuild replaces the previous entries atomically.
func (l *Lexical) Build(_ context.Context, records []store.ExperienceRecord) error {
	if len(records) == 0 {
		return errors.IndexBuildError("empty record set", nil)
	}

	postings := make(map[string]map[string]int)
	docLens := make(map[string]int, len(records))
	totalLen := 0

	for _, rec := range records {
		tokens := tokenize(rec.Text())
		docLens[rec.ID] = len(tokens)
		totalLen += len(tokens)

		for _, term := range tokens {
			if postings[term] == nil {
				postings[term] = make(map[string]int)
			}
			postings[term][rec.ID]++
		}
	}

	l.postings = postings
	l.docLens = docLens
	l.docCount = len(records)
	l.avgDocLen = float64(totalLen) / float64(len(records))
	l.meta = newLabelSet(records)
	l.built = true

	return nil
}

// Query scores every candidate record against the query terms and
// returns the top-k by descending score, ties broken by ascending ID.
// Records with zero term overlap are not returned.
func (l *Lexical) Query(_ context.Context, text string, k int) (RetrievalResult, error) {
	if k <= 0 {
		return nil, errors.InvalidArgumentError("k must be positive")
	}
	if !l.built {
		return nil, errors.NotBuiltError()
	}

	scores := make(map[string]float64)
	seen := make(map[string]struct{})

	for _, term := range tokenize(text) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		docs, ok := l.postings[term]
		if !ok {
			continue
		}

		idf := computeIDF(l.docCount, len(docs))
		for id, tf := range docs {
			scores[id] += idf * l.tfNorm(float64(tf), float64(l.docLens[id]))
		}
	}

	hits := make(RetrievalResult, 0, len(scores))
	for id, score := range scores {
		if score > 0 {
			hits = append(hits, Hit{ID: id, Score: score})
		}
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Label returns the label of an indexed record.
func (l *Lexical) Label(id string) (store.Label, bool) {
	return l.meta.label(id)
}

// Stats returns counts for the built index.
func (l *Lexical) Stats() Stats {
	return Stats{
		Backend:  string(ChoiceLexical),
		Records:  l.docCount,
		Benign:   l.meta.benign,
		Poisoned: l.meta.poisoned,
	}
}

func computeIDF(totalDocs, docFreq int) float64 {
	return math.Log((float64(totalDocs)-float64(docFreq)+0.5)/(float64(docFreq)+0.5) + 1)
}

func (l *Lexical) tfNorm(tf, docLen float64) float64 {
	if l.avgDocLen == 0 {
		return 0
	}
	return (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*docLen/l.avgDocLen))
}

// sortHits orders by descending score with ascending-ID tie break.
func sortHits(hits RetrievalResult) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
}
