package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/pkg/hash"
)

// paraphraseTemplates are the fixed rewrite rules used to synthesize
// benign variants. The set is deliberately small and auditable: every
// augmented record is a template application over an explicit seed, never
// generated content. Template choice cycles deterministically so repeated
// runs over the same seed set produce byte-identical stores.
var paraphraseTemplates = []struct {
	request  string
	response string
}{
	{"Need guidance: %s", "Prior run summary: %s"},
	{"%s Any proven approach?", "%s Verified again in a later session."},
	{"Follow-up on an earlier task. %s", "%s The same procedure applied cleanly."},
	{"A teammate asked: %s", "Recorded outcome: %s"},
}

// Augment synthesizes benign records from existing benign seeds until the
// benign count reaches targetBenign. Poisoned records are never
// synthesized: if the store holds fewer poisoned records than
// targetPoisoned, Augment fails with INSUFFICIENT_POISONED_SEEDS rather
// than amplifying attack payloads.
func (s *Store) Augment(targetBenign, targetPoisoned int) error {
	benign, poisoned := s.Counts()

	if poisoned < targetPoisoned {
		return errors.InsufficientPoisonedSeedsError(poisoned, targetPoisoned)
	}

	if benign == 0 && targetBenign > benign {
		return errors.EmptyStoreError("benign seed set")
	}

	// Collect benign seeds in ID order so synthesis order is stable.
	seeds := make([]ExperienceRecord, 0, benign)
	for _, r := range s.records {
		if r.Label == LabelBenign && !hasTag(r.Tags, "augmented") {
			seeds = append(seeds, r)
		}
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].ID < seeds[j].ID })
	if len(seeds) == 0 && targetBenign > benign {
		return errors.EmptyStoreError("benign seed set")
	}

	for n := 0; benign < targetBenign; n++ {
		seed := seeds[n%len(seeds)]
		tmpl := paraphraseTemplates[(n/len(seeds))%len(paraphraseTemplates)]

		rec := ExperienceRecord{
			ID:       hash.AugmentedID(seed.ID, n),
			Request:  fmt.Sprintf(tmpl.request, seed.Request),
			Response: fmt.Sprintf(tmpl.response, seed.Response),
			Label:    LabelBenign,
			Tags:     append(append([]string{}, seed.Tags...), "augmented"),
			Cluster:  seed.Cluster,
		}

		if _, exists := s.records[rec.ID]; exists {
			// Augmenting an already-augmented store; the variant is
			// present, keep counting toward the target.
			continue
		}

		s.records[rec.ID] = rec
		benign++
	}

	return nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// auditDocument is the side-file shape written after augmentation.
type auditDocument struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Source      string             `json:"source"`
	Benign      int                `json:"benign"`
	Poisoned    int                `json:"poisoned"`
	Experiences []ExperienceRecord `json:"experiences"`
}

// WriteAudit writes the full (possibly augmented) record set to a side
// file for audit. Callers treat a failure here as non-fatal.
func (s *Store) WriteAudit(path string) error {
	benign, poisoned := s.Counts()
	doc := auditDocument{
		GeneratedAt: time.Now().UTC(),
		Source:      s.source,
		Benign:      benign,
		Poisoned:    poisoned,
		Experiences: s.Records(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.PersistenceError("marshaling audit document", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.PersistenceError("writing audit file", err)
	}

	return nil
}
