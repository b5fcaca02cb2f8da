package index

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/memgraft/memgraft/internal/embedding"
	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/store"
)

// Index artifact format.
const (
	formatName    = "memgraft-index"
	formatVersion = 1
)

// envelope is the on-disk wrapper: a checksum over the snapshot payload
// so a truncated or hand-edited artifact is rejected at load.
type envelope struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Snapshot json.RawMessage `json:"snapshot"`
}

type recordMeta struct {
	ID      string      `json:"id"`
	Label   store.Label `json:"label"`
	Cluster string      `json:"cluster,omitempty"`
}

type lexicalSnapshot struct {
	Postings  map[string]map[string]int `json:"postings"`
	DocLens   map[string]int            `json:"doc_lens"`
	AvgDocLen float64                   `json:"avg_doc_len"`
	DocCount  int                       `json:"doc_count"`
}

type vectorSnapshot struct {
	Dim     int                  `json:"dim"`
	IDs     []string             `json:"ids"`
	Vectors map[string][]float32 `json:"vectors"`
}

type snapshot struct {
	Backend   string           `json:"backend"`
	CreatedAt time.Time        `json:"created_at"`
	Records   []recordMeta     `json:"records"`
	Lexical   *lexicalSnapshot `json:"lexical,omitempty"`
	Vector    *vectorSnapshot  `json:"vector,omitempty"`
}

// Save serializes a built index so it can be reloaded without the raw
// records. The artifact is written to a temp file and atomically
// renamed into place: a partial write never leaves a usable artifact
// at path.
func Save(b Backend, path string) error {
	snap, err := takeSnapshot(b)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.PersistenceError("marshaling index snapshot", err)
	}

	env := envelope{
		Format:   formatName,
		Version:  formatVersion,
		Checksum: fmt.Sprintf("%08x", crc32.ChecksumIEEE(payload)),
		Snapshot: payload,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return errors.PersistenceError("marshaling index envelope", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.PersistenceError("creating index directory", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.PersistenceError("creating temp index file", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.PersistenceError("writing index file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.PersistenceError("syncing index file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.PersistenceError("closing index file", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.PersistenceError("publishing index file", err)
	}

	return nil
}

func takeSnapshot(b Backend) (*snapshot, error) {
	switch idx := b.(type) {
	case *Lexical:
		if !idx.built {
			return nil, errors.NotBuiltError()
		}
		return &snapshot{
			Backend:   string(ChoiceLexical),
			CreatedAt: time.Now().UTC(),
			Records:   metaRecords(idx.meta),
			Lexical: &lexicalSnapshot{
				Postings:  idx.postings,
				DocLens:   idx.docLens,
				AvgDocLen: idx.avgDocLen,
				DocCount:  idx.docCount,
			},
		}, nil

	case *Vector:
		if !idx.built {
			return nil, errors.NotBuiltError()
		}
		return &snapshot{
			Backend:   string(ChoiceVector),
			CreatedAt: time.Now().UTC(),
			Records:   metaRecords(idx.meta),
			Vector: &vectorSnapshot{
				Dim:     idx.dim,
				IDs:     idx.ids,
				Vectors: idx.vectors,
			},
		}, nil

	default:
		return nil, errors.PersistenceError(fmt.Sprintf("unsupported backend type %T", b), nil)
	}
}

func metaRecords(ls labelSet) []recordMeta {
	out := make([]recordMeta, 0, len(ls.labels))
	for id, label := range ls.labels {
		out = append(out, recordMeta{ID: id, Label: label, Cluster: ls.clusters[id]})
	}
	return out
}

func restoreLabelSet(records []recordMeta) labelSet {
	ls := labelSet{
		labels:   make(map[string]store.Label, len(records)),
		clusters: make(map[string]string),
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

// Load reconstructs a backend from a persisted artifact. A vector
// artifact needs the embedding provider back to embed query text; the
// stored record vectors are reused as-is.
func Load(path string, provider embedding.Provider) (Backend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.PersistenceError("reading index file", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.PersistenceError("parsing index envelope", err)
	}

	if env.Format != formatName {
		return nil, errors.PersistenceError(fmt.Sprintf("unexpected artifact format %q", env.Format), nil)
	}
	if env.Version != formatVersion {
		return nil, errors.PersistenceError(fmt.Sprintf("unsupported artifact version %d", env.Version), nil)
	}

	sum := fmt.Sprintf("%08x", crc32.ChecksumIEEE(env.Snapshot))
	if sum != env.Checksum {
		return nil, errors.PersistenceError("index artifact checksum mismatch", nil)
	}

	var snap snapshot
	if err := json.Unmarshal(env.Snapshot, &snap); err != nil {
		return nil, errors.PersistenceError("parsing index snapshot", err)
	}

	switch snap.Backend {
	case string(ChoiceLexical):
		if snap.Lexical == nil {
			return nil, errors.PersistenceError("lexical artifact missing payload", nil)
		}
		return &Lexical{
			postings:  snap.Lexical.Postings,
			docLens:   snap.Lexical.DocLens,
			avgDocLen: snap.Lexical.AvgDocLen,
			docCount:  snap.Lexical.DocCount,
			meta:      restoreLabelSet(snap.Records),
			built:     true,
		}, nil

	case string(ChoiceVector):
		if snap.Vector == nil {
			return nil, errors.PersistenceError("vector artifact missing payload", nil)
		}
		if provider == nil {
			return nil, errors.EmbeddingError("vector artifact requires an embedding provider", nil)
		}
		// Query vectors must match the stored record vectors; a
		// differently-sized provider would produce quietly wrong
		// similarities.
		if provider.Dimension() != snap.Vector.Dim {
			return nil, errors.EmbeddingError(
				fmt.Sprintf("provider dimension %d does not match artifact dimension %d",
					provider.Dimension(), snap.Vector.Dim), nil)
		}
		return &Vector{
			provider: provider,
			dim:      snap.Vector.Dim,
			vectors:  snap.Vector.Vectors,
			ids:      snap.Vector.IDs,
			meta:     restoreLabelSet(snap.Records),
			built:    true,
		}, nil

	default:
		return nil, errors.PersistenceError(fmt.Sprintf("unknown backend %q in artifact", snap.Backend), nil)
	}
}
