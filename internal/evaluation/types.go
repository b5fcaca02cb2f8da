package evaluation

import "time"

// Scoring selects how a single query contributes to the aggregate PRR.
type Scoring string

const (
	// ScoringBinary counts a query as 1 if any retrieved record is
	// poisoned, 0 otherwise.
	ScoringBinary Scoring = "binary"

	// ScoringFraction counts the fraction of retrieved records that
	// are poisoned.
	ScoringFraction Scoring = "fraction"
)

// QuerySpec is one query in the evaluation battery. Cluster is an
// optional expected topic tag carried into the report for diagnostics;
// it does not affect scoring.
type QuerySpec struct {
	Text    string `json:"text" yaml:"text"`
	Cluster string `json:"cluster,omitempty" yaml:"cluster,omitempty"`
}

// QueryOutcome is the per-query breakdown in the report.
type QueryOutcome struct {
	Query        string   `json:"query"`
	Cluster      string   `json:"cluster,omitempty"`
	RetrievedIDs []string `json:"retrieved_ids"`
	PoisonedIDs  []string `json:"poisoned_ids"`
	PRR          float64  `json:"prr"`
	Attempts     int      `json:"attempts"`
	Failed       bool     `json:"failed"`
	Error        string   `json:"error,omitempty"`
}

// Report is the immutable result of one evaluation run. The top-level
// "prr" field name is a stable contract; dashboards and CI gates key
// on it.
type Report struct {
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Backend   string         `json:"backend"`
	Scoring   Scoring        `json:"scoring"`
	K         int            `json:"k"`
	PRR       float64        `json:"prr"`
	Records   int            `json:"records"`
	Benign    int            `json:"benign"`
	Poisoned  int            `json:"poisoned"`
	Queries   []QueryOutcome `json:"queries"`
	Failed    int            `json:"failed_queries"`
}
