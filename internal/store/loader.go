package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/pkg/logger"
)

// seedDocument is the on-disk shape of a seed file.
type seedDocument struct {
	Experiences []seedRecord `json:"experiences" yaml:"experiences"`
}

// seedRecord keeps the label as a raw string so unknown labels are a
// per-record diagnostic instead of a parse failure.
type seedRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Request  string   `json:"request" yaml:"request"`
	Response string   `json:"response" yaml:"response"`
	Label    string   `json:"label" yaml:"label"`
	Tags     []string `json:"tags" yaml:"tags"`
	Cluster  string   `json:"cluster" yaml:"cluster"`
}

// Load reads a seed document (JSON or YAML by extension) and returns a
// validated store. Malformed individual records are skipped with a
// collected warning. Duplicate identifiers abort the load with a
// SCHEMA_ERROR: a seed set that reuses IDs cannot be trusted as a corpus.
// A load yielding zero usable records fails with EMPTY_STORE.
func Load(path string, log *logger.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSchema, "reading seed file", err)
	}

	var doc seedDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeSchema, "parsing seed file", err)
	}

	s := &Store{
		source:  path,
		records: make(map[string]ExperienceRecord, len(doc.Experiences)),
	}

	for i, raw := range doc.Experiences {
		rec := ExperienceRecord{
			ID:       raw.ID,
			Request:  raw.Request,
			Response: raw.Response,
			Label:    Label(raw.Label),
			Tags:     raw.Tags,
			Cluster:  raw.Cluster,
		}

		if err := rec.Validate(); err != nil {
			warning := fmt.Sprintf("seed #%d skipped: %v", i, err)
			s.warnings = append(s.warnings, warning)
			log.Warn("skipping malformed seed record", "index", i, "reason", err.Error())
			continue
		}

		if _, exists := s.records[rec.ID]; exists {
			return nil, errors.SchemaError("duplicate record identifier").
				WithDetail("id", rec.ID)
		}

		s.records[rec.ID] = rec
	}

	if len(s.records) == 0 {
		return nil, errors.EmptyStoreError(path)
	}

	benign, poisoned := s.Counts()
	log.Info("loaded experience seeds",
		"source", path,
		"benign", benign,
		"poisoned", poisoned,
		"skipped", len(s.warnings),
	)

	return s, nil
}
