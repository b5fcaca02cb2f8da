// Package evaluation runs a query battery against a built retrieval
// index and measures the Poisoned Retrieval Rate: the share of queries
// for which a poisoned record surfaces in the top-k results.
package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/memgraft/memgraft/internal/index"
	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/pkg/logger"
	"github.com/memgraft/memgraft/internal/store"
)

// State is the engine lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateBuilt     State = "built"
	StateEvaluated State = "evaluated"
	StateReported  State = "reported"
)

// Engine drives one evaluation run through a fixed lifecycle:
// Idle, Built (index attached), Evaluated (battery completed),
// Reported (report persisted). Transitions never skip a phase.
type Engine struct {
	log         *logger.Logger
	scoring     Scoring
	parallelism int

	mu      sync.Mutex
	state   State
	backend index.Backend
	report  *Report
}

// NewEngine creates an idle engine. Parallelism bounds concurrent
// backend queries during the batch; values below 1 are treated as 1.
func NewEngine(log *logger.Logger, scoring Scoring, parallelism int) *Engine {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Engine{
		log:         log,
		scoring:     scoring,
		parallelism: parallelism,
		state:       StateIdle,
	}
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) transition(from, to State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != from {
		return errors.InvalidArgumentError(
			fmt.Sprintf("engine is %s, cannot transition to %s", e.state, to))
	}
	e.state = to
	return nil
}

// UseIndex attaches a built index and moves the engine to Built. The
// engine treats the index as read-only for the rest of the run.
func (e *Engine) UseIndex(b index.Backend) error {
	if b == nil {
		return errors.InvalidArgumentError("nil index backend")
	}
	if err := e.transition(StateIdle, StateBuilt); err != nil {
		return err
	}
	e.mu.Lock()
	e.backend = b
	e.mu.Unlock()
	return nil
}

// Evaluate runs the query battery and computes the aggregate PRR.
// Each query gets one retry on a transient backend failure; a second
// failure marks it failed in the report and excludes it from the
// aggregate. Contract violations from the backend abort the run.
func (e *Engine) Evaluate(ctx context.Context, queries []QuerySpec, k int) (*Report, error) {
	if len(queries) == 0 {
		return nil, errors.InvalidArgumentError("empty query battery")
	}
	if k <= 0 {
		return nil, errors.InvalidArgumentError("k must be positive")
	}
	if err := e.transition(StateBuilt, StateEvaluated); err != nil {
		return nil, err
	}

	stats := e.backend.Stats()
	runLog := e.log.WithBackend(stats.Backend)

	outcomes := make([]QueryOutcome, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			outcome, err := e.runQuery(gctx, q, k, runLog)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sum float64
	scored, failed := 0, 0
	for _, o := range outcomes {
		if o.Failed {
			failed++
			continue
		}
		sum += o.PRR
		scored++
	}
	prr := 0.0
	if scored > 0 {
		prr = sum / float64(scored)
	}

	report := &Report{
		RunID:     uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Backend:   stats.Backend,
		Scoring:   e.scoring,
		K:         k,
		PRR:       prr,
		Records:   stats.Records,
		Benign:    stats.Benign,
		Poisoned:  stats.Poisoned,
		Queries:   outcomes,
		Failed:    failed,
	}

	e.mu.Lock()
	e.report = report
	e.mu.Unlock()

	runLog.WithRun(report.RunID).Info("evaluation completed",
		"prr", prr, "queries", len(queries), "failed", failed)

	return report, nil
}

// runQuery executes one query with the single-retry policy.
func (e *Engine) runQuery(ctx context.Context, q QuerySpec, k int, log *logger.Logger) (QueryOutcome, error) {
	outcome := QueryOutcome{Query: q.Text, Cluster: q.Cluster}

	var hits index.RetrievalResult
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		outcome.Attempts = attempt
		hits, err = e.backend.Query(ctx, q.Text, k)
		if err == nil {
			break
		}
		if errors.IsFatal(err) {
			return QueryOutcome{}, err
		}
		if attempt == 1 {
			log.WithError(err).Warn("query failed, retrying once", "query", q.Text)
		}
	}
	if err != nil {
		log.WithError(err).Warn("query failed after retry, excluding from aggregate",
			"query", q.Text)
		outcome.Failed = true
		outcome.Error = err.Error()
		return outcome, nil
	}

	outcome.RetrievedIDs = make([]string, 0, len(hits))
	for _, h := range hits {
		outcome.RetrievedIDs = append(outcome.RetrievedIDs, h.ID)
		if label, ok := e.backend.Label(h.ID); ok && label == store.LabelPoisoned {
			outcome.PoisonedIDs = append(outcome.PoisonedIDs, h.ID)
		}
	}
	outcome.PRR = queryPRR(len(outcome.PoisonedIDs), len(outcome.RetrievedIDs), e.scoring)

	return outcome, nil
}

// Report returns the computed report, or nil before Evaluate.
func (e *Engine) Report() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}
