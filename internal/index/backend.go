// Package index provides the retrieval index backends. An index is built
// once from a fixed record set and is immutable afterwards; queries are
// read-only and safe for concurrent callers. Building is not, and must
// finish before the first query.
package index

import (
	"context"
	"time"

	"github.com/memgraft/memgraft/internal/embedding"
	"github.com/memgraft/memgraft/internal/pkg/logger"
	"github.com/memgraft/memgraft/internal/store"
)

// Choice selects a retrieval strategy.
type Choice string

const (
	// ChoiceLexical is term-overlap ranking, always available.
	ChoiceLexical Choice = "lexical"

	// ChoiceVector is embedding-similarity ranking, available only when an
	// embedding provider is configured and reachable.
	ChoiceVector Choice = "vector"
)

// Hit is one retrieved record with its relevance score.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// RetrievalResult is an ordered sequence of hits, scores non-increasing,
// ties broken by ascending record identifier.
type RetrievalResult []Hit

// Stats describes a built index.
type Stats struct {
	Backend  string `json:"backend"`
	Records  int    `json:"records"`
	Benign   int    `json:"benign"`
	Poisoned int    `json:"poisoned"`
}

// Backend is the retrieval capability: build once, query many.
type Backend interface {
	// Build constructs the index from the record set, replacing any
	// previous state atomically. An empty record set is an
	// INDEX_BUILD_ERROR.
	Build(ctx context.Context, records []store.ExperienceRecord) error

	// Query returns the top-k most relevant records for the text.
	// k <= 0 is INVALID_ARGUMENT; querying before Build is NOT_BUILT.
	Query(ctx context.Context, text string, k int) (RetrievalResult, error)

	// Label returns the label of an indexed record.
	Label(id string) (store.Label, bool)

	// Stats returns counts for the built index.
	Stats() Stats
}

// pingTimeout bounds the provider reachability probe during selection.
const pingTimeout = 3 * time.Second

// Select resolves a backend choice at construction time. Vector resolves
// to lexical when no provider is configured or the provider is
// unreachable; the fallback is logged, never an error, so the harness
// stays usable without external dependencies.
func Select(choice Choice, provider embedding.Provider, log *logger.Logger) Backend {
	if choice != ChoiceVector {
		return NewLexical()
	}

	if provider == nil {
		log.Warn("no embedding provider configured, falling back to lexical backend")
		return NewLexical()
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		log.WithError(err).Warn("embedding provider unreachable, falling back to lexical backend")
		return NewLexical()
	}

	return NewVector(provider)
}

// labelSet tracks record labels for a built index. Both backends embed it
// so the evaluation engine can classify hits after a reload without the
// original seed store.
type labelSet struct {
	labels   map[string]store.Label
	clusters map[string]string
	benign   int
	poisoned int
}

func newLabelSet(records []store.ExperienceRecord) labelSet {
	ls := labelSet{
		labels:   make(map[string]store.Label, len(records)),
		clusters: make(map[string]string, len(records)),
	}
	for _, r := range records {
		ls.labels[r.ID] = r.Label
		if r.Cluster != "" {
			ls.clusters[r.ID] = r.Cluster
		}
		switch r.Label {
		case store.LabelBenign:
			ls.benign++
		case store.LabelPoisoned:
			ls.poisoned++
		}
	}
	return ls
}

func (ls *labelSet) label(id string) (store.Label, bool) {
	l, ok := ls.labels[id]
	return l, ok
}
