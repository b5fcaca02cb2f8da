// Package store manages the labeled experience record set for one
// evaluation run. Records are loaded from a seed document, validated,
// and optionally augmented with synthetic benign variants.
package store

import (
	"fmt"
	"sort"
	"strings"
)

// Label classifies an experience record.
type Label string

const (
	// LabelBenign marks a legitimate experience record.
	LabelBenign Label = "benign"

	// LabelPoisoned marks an attacker-crafted experience record.
	LabelPoisoned Label = "poisoned"
)

// ParseLabel parses a label string, rejecting anything outside the taxonomy.
func ParseLabel(s string) (Label, error) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case LabelBenign:
		return LabelBenign, nil
	case LabelPoisoned:
		return LabelPoisoned, nil
	default:
		return "", fmt.Errorf("unknown label %q", s)
	}
}

// ExperienceRecord is a labeled request-response pair used as retrieval
// corpus content. The label is immutable once assigned.
type ExperienceRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Request  string   `json:"request" yaml:"request"`
	Response string   `json:"response" yaml:"response"`
	Label    Label    `json:"label" yaml:"label"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Cluster  string   `json:"cluster,omitempty" yaml:"cluster,omitempty"`
}

// Validate checks the record for required fields and normalizes the
// label to its canonical form. Every record entering a Store goes
// through here, so downstream label comparisons can rely on the
// canonical constants.
func (r *ExperienceRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("missing id")
	}
	if strings.TrimSpace(r.Request) == "" {
		return fmt.Errorf("record %s: missing request", r.ID)
	}
	if strings.TrimSpace(r.Response) == "" {
		return fmt.Errorf("record %s: missing response", r.ID)
	}
	label, err := ParseLabel(string(r.Label))
	if err != nil {
		return fmt.Errorf("record %s: %v", r.ID, err)
	}
	r.Label = label
	return nil
}

// Text returns the indexable content of the record.
func (r *ExperienceRecord) Text() string {
	return r.Request + "\n" + r.Response
}

// Store owns the canonical record set for the lifetime of one run.
type Store struct {
	source   string
	records  map[string]ExperienceRecord
	warnings []string
}

// Source returns the seed source the store was loaded from.
func (s *Store) Source() string {
	return s.source
}

// Get returns the record with the given identifier.
func (s *Store) Get(id string) (ExperienceRecord, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Records returns all records sorted by identifier.
func (s *Store) Records() []ExperienceRecord {
	out := make([]ExperienceRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Counts returns the number of benign and poisoned records.
func (s *Store) Counts() (benign, poisoned int) {
	for _, r := range s.records {
		switch r.Label {
		case LabelBenign:
			benign++
		case LabelPoisoned:
			poisoned++
		}
	}
	return benign, poisoned
}

// Warnings returns the diagnostics collected while loading, one per
// skipped record.
func (s *Store) Warnings() []string {
	return s.warnings
}
