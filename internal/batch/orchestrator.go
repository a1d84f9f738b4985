// Package batch drives the per-record merge loop: render, toggle, compile,
// route, with per-record failure isolation.
//
// Execution is strictly sequential in worksheet order. Iterations share no
// mutable state (fresh rendered document, fresh scratch directory per
// record), so the loop could be parallelized later without reworking the
// components; today the external compiler dominates and runs one at a time.
package batch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"genassign/internal/compile"
	"genassign/internal/route"
	"genassign/internal/texmerge"
	"genassign/internal/worksheet"
)

// Orchestrator wires the loaded template and worksheet to the compilation
// driver and output router.
type Orchestrator struct {
	Sheet    *worksheet.Sheet
	Template *texmerge.Template
	Driver   *compile.Driver
	Router   *route.Router

	// Generic disables the toggle pass entirely: one rendering per record,
	// strict placeholder resolution.
	Generic bool

	// GenPaper additionally produces the question paper (hidden content
	// suppressed) for each record. Ignored in generic mode.
	GenPaper bool

	Logger *zap.Logger
}

// Run processes every record. A failing record is recorded and skipped, it
// never aborts the batch; the only early exit is caller cancellation, which
// is honored between records so no compilation is cut off mid-pass.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{Records: len(o.Sheet.Records)}
	for i, rec := range o.Sheet.Records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		o.logger().Info("processing record",
			zap.Int("row", i+1),
			zap.String("record", rec.Identity()))
		res.Outcomes = append(res.Outcomes, o.runRecord(ctx, i+1, rec)...)
	}
	return res, nil
}

// modes returns the per-record compilation sequence. Solutions are compiled
// first: that run executes the embedded code, and the paper run reuses its
// output rather than re-randomizing.
func (o *Orchestrator) modes() []texmerge.Mode {
	if o.Generic {
		return []texmerge.Mode{texmerge.ModeGeneric}
	}
	if o.GenPaper {
		return []texmerge.Mode{texmerge.ModeSolution, texmerge.ModePaper}
	}
	return []texmerge.Mode{texmerge.ModeSolution}
}

func (o *Orchestrator) runRecord(ctx context.Context, row int, rec worksheet.Record) []Outcome {
	start := time.Now()

	fail := func(mode texmerge.Mode, stage Stage, err error) Outcome {
		out := Outcome{Record: rec.Identity(), Mode: mode, Stage: stage,
			Err: err, Kind: kindOf(err), Elapsed: time.Since(start)}
		o.logger().Warn("record failed",
			zap.String("record", out.Record),
			zap.String("mode", string(out.Mode)),
			zap.String("stage", string(out.Stage)),
			zap.String("kind", out.Kind),
			zap.Error(err))
		return out
	}

	doc, err := texmerge.Render(o.Template, rec, o.Generic)
	if err != nil {
		return []Outcome{fail(o.modes()[0], StageRender, err)}
	}
	if len(doc.Unresolved) > 0 {
		o.logger().Warn("unresolved placeholders pass through",
			zap.String("record", rec.Identity()),
			zap.Strings("placeholders", doc.Unresolved))
	}

	job, err := o.Driver.NewJob(row, rec.Identity())
	if err != nil {
		return []Outcome{fail(o.modes()[0], StageCompile, err)}
	}
	defer func() { _ = job.Close() }()

	var outcomes []Outcome
	for _, mode := range o.modes() {
		modeDoc := doc
		if !o.Generic {
			modeDoc, err = texmerge.SetMode(doc, mode)
			if err != nil {
				outcomes = append(outcomes, fail(mode, StageToggle, err))
				break
			}
		}

		art, err := o.Driver.Compile(ctx, job, modeDoc)
		if err != nil {
			outcomes = append(outcomes, fail(mode, StageCompile, err))
			// The paper run depends on the solution run's intermediates;
			// once a mode fails, the rest of this record is skipped.
			break
		}

		dest, err := o.Router.Place(art, rec)
		if err != nil {
			outcomes = append(outcomes, fail(mode, StageRoute, err))
			break
		}

		outcomes = append(outcomes, Outcome{Record: rec.Identity(), Mode: mode,
			Stage: StageDone, Dest: dest, Elapsed: time.Since(start)})
	}
	return outcomes
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
