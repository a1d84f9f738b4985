// Package report emits a machine-readable summary of a batch run.
//
// The report is the durable record of what happened to each (record, mode)
// attempt; gradebook tooling downstream diffs it between runs.
package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"genassign/internal/batch"
)

// Attempt is one (record, mode) entry of the report.
type Attempt struct {
	Record    string `json:"record"`
	Mode      string `json:"mode"`
	Stage     string `json:"stage"`
	Dest      string `json:"dest,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// RunReport summarizes a whole run.
type RunReport struct {
	RunID     string    `json:"run_id"`
	Template  string    `json:"template"`
	Worksheet string    `json:"worksheet"`
	Generic   bool      `json:"generic"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Records   int       `json:"records"`
	Placed    int       `json:"placed"`
	Failed    int       `json:"failed"`
	Attempts  []Attempt `json:"attempts"`
}

// FromResult builds a report from a batch result. A nil result (setup
// failure, cancellation before the first record) still yields a valid,
// empty report.
func FromResult(runID, template, sheet string, generic bool, started time.Time, res *batch.Result) *RunReport {
	r := &RunReport{
		RunID:     runID,
		Template:  template,
		Worksheet: sheet,
		Generic:   generic,
		Started:   started.UTC(),
		Finished:  time.Now().UTC(),
		Attempts:  []Attempt{},
	}
	if res == nil {
		return r
	}
	r.Records = res.Records
	r.Placed = res.Placed()
	r.Failed = len(res.Failures())
	for _, o := range res.Outcomes {
		a := Attempt{
			Record:    o.Record,
			Mode:      string(o.Mode),
			Stage:     string(o.Stage),
			Dest:      o.Dest,
			Kind:      o.Kind,
			ElapsedMS: o.Elapsed.Milliseconds(),
		}
		if o.Err != nil {
			a.Error = o.Err.Error()
		}
		r.Attempts = append(r.Attempts, a)
	}
	return r
}

// Write persists the report atomically so a crash never leaves a truncated
// report behind.
func Write(path string, r *RunReport) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(b))
}
