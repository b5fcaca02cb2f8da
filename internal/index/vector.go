package index

import (
	"context"
	"math"

	"github.com/memgraft/memgraft/internal/embedding"
	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/store"
)

// Vector ranks records by cosine similarity between embeddings. Records
// are embedded once at build time; each query costs one provider call.
type Vector struct {
	provider embedding.Provider
	dim      int
	vectors  map[string][]float32 // record ID -> L2-normalized embedding
	ids      []string             // stable iteration order
	meta     labelSet
	built    bool
}

// NewVector creates an unbuilt vector backend over the given provider.
func NewVector(provider embedding.Provider) *Vector {
	return &Vector{
		provider: provider,
		dim:      provider.Dimension(),
	}
}

// Build embeds every record in one pass and stores normalized vectors.
func (v *Vector) Build(ctx context.Context, records []store.ExperienceRecord) error {
	if len(records) == 0 {
		return errors.IndexBuildError("empty record set", nil)
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text()
	}

	embeddings, err := v.provider.Embed(ctx, texts)
	if err != nil {
		return errors.IndexBuildError("embedding record set", err)
	}

	vectors := make(map[string][]float32, len(records))
	ids := make([]string, len(records))
	for i, rec := range records {
		vectors[rec.ID] = l2Normalize(embeddings[i])
		ids[i] = rec.ID
	}

	v.vectors = vectors
	v.ids = ids
	v.meta = newLabelSet(records)
	v.built = true

	return nil
}

// Query embeds the query text and ranks records by cosine similarity.
func (v *Vector) Query(ctx context.Context, text string, k int) (RetrievalResult, error) {
	if k <= 0 {
		return nil, errors.InvalidArgumentError("k must be positive")
	}
	if !v.built {
		return nil, errors.NotBuiltError()
	}

	embeddings, err := v.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	query := l2Normalize(embeddings[0])

	hits := make(RetrievalResult, 0, len(v.ids))
	for _, id := range v.ids {
		hits = append(hits, Hit{ID: id, Score: dot(query, v.vectors[id])})
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Label returns the label of an indexed record.
func (v *Vector) Label(id string) (store.Label, bool) {
	return v.meta.label(id)
}

// Stats returns counts for the built index.
func (v *Vector) Stats() Stats {
	return Stats{
		Backend:  string(ChoiceVector),
		Records:  len(v.ids),
		Benign:   v.meta.benign,
		Poisoned: v.meta.poisoned,
	}
}

// l2Normalize scales a vector to unit length. After normalization,
// cosine similarity reduces to a dot product.
func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))

	out := make([]float32, len(vec))
	for i, x := range vec {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
