// Package compile invokes the external LaTeX toolchain on a rendered
// document and collects the resulting PDF.
//
// A compilation is a fixed sequence of subprocess passes treated as one
// atomic unit with a single pass/fail outcome. The pass order belongs to the
// toolchain, not to the callers: templates may embed PythonTeX code whose
// output must exist before cross-references resolve, so the full rendering
// is latex -> pythontex -> latex, while the paper rendering of the same
// record re-runs latex only (re-running pythontex would re-randomize the
// problem variables between the solution and its question paper).
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"genassign/internal/texmerge"
)

// jobName is the fixed basename for the working .tex/.pdf pair inside a
// scratch directory.
const jobName = "merge"

// logTailBytes bounds how much compiler output a CompilationError carries.
const logTailBytes = 2048

// Toolchain holds the argv prefixes for each external tool; the working
// .tex filename is appended as the final argument.
type Toolchain struct {
	Latex     []string
	PythonTex []string
}

// DefaultToolchain is pdflatex with shell-escape (PythonTeX needs it) in
// nonstop mode, plus pythontex.
func DefaultToolchain() Toolchain {
	return Toolchain{
		Latex:     []string{"pdflatex", "-shell-escape", "-synctex=1", "-interaction=nonstopmode"},
		PythonTex: []string{"pythontex"},
	}
}

type pass struct {
	name string
	argv []string
}

func (t Toolchain) plan(mode texmerge.Mode) []pass {
	latex := pass{name: "latex", argv: t.Latex}
	switch mode {
	case texmerge.ModePaper:
		// Second latex run refreshes toc/cross-references.
		return []pass{latex, latex}
	default:
		return []pass{latex, pass{name: "pythontex", argv: t.PythonTex}, latex}
	}
}

// Artifact is a successfully compiled document, still inside its scratch
// directory. The router moves it out before the job is closed.
type Artifact struct {
	Path     string
	Mode     texmerge.Mode
	RecordID string
}

// Driver writes rendered documents to per-record scratch directories and
// runs the toolchain in them.
type Driver struct {
	// Workspace is the run-scoped root under which scratch directories are
	// created. See NewWorkspace.
	Workspace string

	Toolchain Toolchain

	// Timeout bounds one whole compilation unit (all passes). Zero means no
	// limit. On expiry the running pass's process group is killed.
	Timeout time.Duration

	// TemplateDir is appended to TEXINPUTS so relative assets next to the
	// template resolve from the scratch directory.
	TemplateDir string

	Logger *zap.Logger
}

// NewWorkspace creates a unique run-scoped scratch root. Scratch directories
// are partitioned per record underneath it, so iterations never share
// intermediate files.
func NewWorkspace() (string, error) {
	dir := filepath.Join(os.TempDir(), "genassign-"+uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

// Job is one record's scratch directory. The solution and paper compilations
// of a record share a job: the paper pass reuses the PythonTeX output the
// solution pass generated.
type Job struct {
	RecordID string
	Scratch  string
}

// NewJob creates the scratch directory for a record.
func (d *Driver) NewJob(index int, recordID string) (*Job, error) {
	scratch := filepath.Join(d.Workspace, fmt.Sprintf("rec-%03d-%s", index, sanitize(recordID)))
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Job{RecordID: recordID, Scratch: scratch}, nil
}

// Close removes the scratch directory and everything the toolchain left in
// it (aux, synctex, pythontex-files-*, comment.cut). Safe on every exit
// path; routing happens before Close.
func (j *Job) Close() error {
	if j == nil || j.Scratch == "" {
		return nil
	}
	return os.RemoveAll(j.Scratch)
}

// Compile writes the document into the job's scratch directory and runs the
// pass sequence for its mode. Any non-zero exit fails the whole unit; a
// failed unit yields no Artifact.
//
// Canceling ctx (or exceeding the driver timeout) kills the running pass's
// whole process group mid-compilation; the unit then fails like any other,
// so a cut-off compilation never routes an artifact.
func (d *Driver) Compile(ctx context.Context, job *Job, doc texmerge.Document) (*Artifact, error) {
	texPath := filepath.Join(job.Scratch, jobName+".tex")
	if err := os.WriteFile(texPath, []byte(doc.Text), 0o644); err != nil {
		return nil, &CompilationError{Record: job.RecordID, Mode: doc.Mode, Pass: "write", Cause: err}
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	start := time.Now()
	for _, p := range d.Toolchain.plan(doc.Mode) {
		if err := d.runPass(ctx, job, doc.Mode, p); err != nil {
			return nil, err
		}
	}

	pdf := filepath.Join(job.Scratch, jobName+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return nil, &CompilationError{Record: job.RecordID, Mode: doc.Mode, Pass: "collect",
			Cause: fmt.Errorf("toolchain exited cleanly but produced no %s.pdf", jobName)}
	}

	if d.Logger != nil {
		d.Logger.Debug("compiled",
			zap.String("record", job.RecordID),
			zap.String("mode", string(doc.Mode)),
			zap.Duration("elapsed", time.Since(start)))
	}
	return &Artifact{Path: pdf, Mode: doc.Mode, RecordID: job.RecordID}, nil
}

func (d *Driver) runPass(ctx context.Context, job *Job, mode texmerge.Mode, p pass) error {
	argv := append(append([]string(nil), p.argv...), jobName+".tex")
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = job.Scratch

	// The toolchain needs the host environment (TeX distributions locate
	// themselves through it); only TEXINPUTS is extended.
	env := os.Environ()
	if d.TemplateDir != "" {
		env = append(env, "TEXINPUTS=.:"+d.TemplateDir+":")
	}
	cmd.Env = env

	// Own process group so a timeout kills the whole tree, not just the
	// front process.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return &CompilationError{Record: job.RecordID, Mode: mode, Pass: p.name, Cause: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return &CompilationError{Record: job.RecordID, Mode: mode, Pass: p.name,
			Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded),
			LogTail: tail(output.Bytes()), Cause: ctx.Err()}
	case waitErr = <-done:
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &CompilationError{Record: job.RecordID, Mode: mode, Pass: p.name,
				ExitCode: exitErr.ExitCode(), LogTail: tail(output.Bytes()), Cause: waitErr}
		}
		return &CompilationError{Record: job.RecordID, Mode: mode, Pass: p.name, Cause: waitErr}
	}
	return nil
}

func tail(b []byte) string {
	if len(b) > logTailBytes {
		b = b[len(b)-logTailBytes:]
	}
	return string(b)
}

// sanitize keeps scratch directory names filesystem-safe.
func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
