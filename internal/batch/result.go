package batch

import (
	"errors"
	"time"

	"genassign/internal/compile"
	"genassign/internal/route"
	"genassign/internal/texmerge"
	"genassign/internal/worksheet"
)

// Stage identifies how far a (record, mode) attempt progressed.
type Stage string

const (
	StageRender  Stage = "render"
	StageToggle  Stage = "toggle"
	StageCompile Stage = "compile"
	StageRoute   Stage = "route"
	StageDone    Stage = "done"
)

// Outcome is the terminal result of one (record, mode) attempt. Every
// compiled artifact traces back to exactly one outcome, and every failure
// keeps its record identity and error kind; nothing is silently dropped.
type Outcome struct {
	Record  string
	Mode    texmerge.Mode
	Stage   Stage
	Dest    string
	Err     error
	Kind    string
	Elapsed time.Duration
}

// Failed reports whether the attempt ended in an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Result aggregates a whole batch. The orchestrator never aborts on a
// per-record failure, so the slice holds one entry per attempted
// (record, mode) pair, in execution order.
type Result struct {
	Records  int
	Outcomes []Outcome
}

// Failures returns the failed outcomes in execution order.
func (r *Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Placed returns the number of artifacts that reached the output tree.
func (r *Result) Placed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// kindOf maps an error to its taxonomy name for summaries and reports.
func kindOf(err error) string {
	var (
		dataErr    *worksheet.DataFormatError
		missErr    *texmerge.MissingFieldError
		structErr  *texmerge.TemplateStructureError
		compileErr *compile.CompilationError
		routeErr   *route.RoutingError
	)
	switch {
	case errors.As(err, &dataErr):
		return "DataFormatError"
	case errors.As(err, &missErr):
		return "MissingFieldError"
	case errors.As(err, &structErr):
		return "TemplateStructureError"
	case errors.As(err, &compileErr):
		return "CompilationError"
	case errors.As(err, &routeErr):
		return "RoutingError"
	case err == nil:
		return ""
	default:
		return "InternalError"
	}
}
