package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/memgraft/memgraft/internal/pkg/errors"
)

// WriteReport persists the computed report as report_<timestamp>.json
// under dir and moves the engine to Reported. The file is written to a
// temp path and atomically renamed. A write failure is returned to the
// caller; the in-memory report stays valid and the engine stays
// Evaluated so the write can be retried.
func (e *Engine) WriteReport(dir string) (string, error) {
	e.mu.Lock()
	report := e.report
	e.mu.Unlock()
	if report == nil {
		return "", errors.InvalidArgumentError("no report computed yet")
	}

	path := filepath.Join(dir, fmt.Sprintf("report_%s.json",
		report.Timestamp.Format("20060102_150405")))

	if err := writeJSON(path, report); err != nil {
		return "", err
	}

	if err := e.transition(StateEvaluated, StateReported); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.PersistenceError("marshaling report", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.PersistenceError("creating report directory", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return errors.PersistenceError("writing report file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.PersistenceError("publishing report file", err)
	}
	return nil
}
