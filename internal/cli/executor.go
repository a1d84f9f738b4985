package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"genassign/internal/batch"
	"genassign/internal/compile"
	"genassign/internal/report"
	"genassign/internal/route"
	"genassign/internal/texmerge"
	"genassign/internal/worksheet"
)

// Result is the outcome of a CLI execution.
type Result struct {
	ExitCode int
	Batch    *batch.Result
}

// Execute runs a canonical invocation with the real toolchain.
func Execute(ctx context.Context, inv Invocation) (Result, error) {
	return ExecuteWithToolchain(ctx, inv, toolchainFor(inv))
}

// ExecuteWithToolchain runs a canonical invocation with an explicit
// toolchain. Tests inject stub compilers here.
//
// Setup errors (template, worksheet, output roots) abort before any record
// is processed: they would fail every record identically. Per-record errors
// are isolated inside the batch and only influence the exit code.
func ExecuteWithToolchain(ctx context.Context, inv Invocation, tc compile.Toolchain) (res Result, execErr error) {
	res.ExitCode = ExitInternalError

	logger, err := newLogger(inv.Verbose)
	if err != nil {
		return res, err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	started := time.Now()

	tpl, err := texmerge.LoadTemplate(inv.Template, !inv.Generic)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	var sheet *worksheet.Sheet
	if inv.Moodle {
		sheet, err = worksheet.LoadMoodle(inv.Worksheet)
	} else {
		sheet, err = worksheet.Load(inv.Worksheet, inv.Generic)
	}
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	workspace, err := compile.NewWorkspace()
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	defer func() { _ = os.RemoveAll(workspace) }()

	driver := &compile.Driver{
		Workspace:   workspace,
		Toolchain:   tc,
		Timeout:     inv.Timeout,
		TemplateDir: absDir(inv.Template),
		Logger:      logger,
	}

	router := &route.Router{
		Root:       inv.Root,
		QuestDir:   inv.QuestDir,
		FileMask:   inv.FileMask,
		FolderMask: inv.FolderMask,
		SolStem:    inv.SolStem,
		PaperStem:  inv.PaperStem,
		Logger:     logger,
	}
	if inv.Encrypt {
		router.Encryptor = &route.Encryptor{Password: inv.Password}
	}
	if err := router.Reset(inv.GenPaper); err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	orch := &batch.Orchestrator{
		Sheet:    sheet,
		Template: tpl,
		Driver:   driver,
		Router:   router,
		Generic:  inv.Generic,
		GenPaper: inv.GenPaper,
		Logger:   logger,
	}

	logger.Info("starting batch",
		zap.String("run_id", runID),
		zap.String("template", inv.Template),
		zap.String("worksheet", inv.Worksheet),
		zap.Int("records", len(sheet.Records)),
		zap.Bool("generic", inv.Generic),
		zap.Bool("gen_paper", inv.GenPaper))

	batchRes, runErr := orch.Run(ctx)
	res.Batch = batchRes

	// The report is written even for interrupted runs: partial outcomes are
	// exactly what a re-run needs to know about.
	if inv.ReportPath != "" {
		rep := report.FromResult(runID, inv.Template, inv.Worksheet, inv.Generic, started, batchRes)
		if werr := report.Write(inv.ReportPath, rep); werr != nil {
			logger.Error("cannot write run report", zap.String("path", inv.ReportPath), zap.Error(werr))
		}
	}

	if runErr != nil {
		// Cancellation between records. Outcomes so far stand.
		res.ExitCode = ExitInternalError
		return res, fmt.Errorf("batch interrupted: %w", runErr)
	}

	logger.Info("batch finished",
		zap.String("run_id", runID),
		zap.Int("records", batchRes.Records),
		zap.Int("placed", batchRes.Placed()),
		zap.Int("failed", len(batchRes.Failures())),
		zap.Duration("elapsed", time.Since(started)))

	if len(batchRes.Failures()) > 0 {
		res.ExitCode = ExitRecordFailure
	} else {
		res.ExitCode = ExitSuccess
	}
	return res, nil
}

// toolchainFor applies the --latex/--pythontex overrides to the default
// toolchain. Overrides are whole commands, split on whitespace.
func toolchainFor(inv Invocation) compile.Toolchain {
	tc := compile.DefaultToolchain()
	if inv.LatexCmd != "" {
		tc.Latex = strings.Fields(inv.LatexCmd)
	}
	if inv.PythonTex != "" {
		tc.PythonTex = strings.Fields(inv.PythonTex)
	}
	return tc
}

func absDir(path string) string {
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return filepath.Dir(path)
	}
	return abs
}

// newLogger builds the CLI logger the same way for every subcommand:
// production config, debug level behind --verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
