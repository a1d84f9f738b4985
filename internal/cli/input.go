package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess           = 0
	ExitRecordFailure     = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Invocation is the canonicalized description of a run: cleaned paths,
// validated flag combinations, Moodle mask rewriting already applied.
type Invocation struct {
	Template  string
	Worksheet string

	FileMask   string
	FolderMask string

	Generic  bool
	GenPaper bool
	Moodle   bool

	SolStem   string
	PaperStem string
	Root      string
	QuestDir  string

	Encrypt  bool
	Password string

	Timeout    time.Duration
	ReportPath string
	LatexCmd   string
	PythonTex  string
	Verbose    bool
}

// InvocationError carries a semantic exit code alongside the message.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// ErrHelp signals that usage was printed and nothing should run.
var ErrHelp = &InvocationError{ExitCode: ExitSuccess}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

func newRootCommand(inv *Invocation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genassign <template> <worksheet>",
		Short: "Generate individualized assignments and solutions from a LaTeX template",
		Long: `genassign repeatedly compiles a LaTeX (optionally PythonTeX) template,
substituting each worksheet record's fields into \VAR{...} markers, and files
the resulting PDFs into per-record folders.

In assignment mode the solutions document is compiled first; with -b the
question paper (hidden content suppressed) is compiled as well and routed
into the questions directory. With -g genassign behaves as a plain
mail-merge: one PDF per record, no toggling, no stems.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Template = args[0]
			inv.Worksheet = args[1]
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&inv.FileMask, "file-mask", "t", "", "filename mask; #1-#9 reference worksheet columns")
	f.StringVarP(&inv.FolderMask, "folder-mask", "f", "file", "folder mask, e.g. 'file' or 'onlinetext' for Moodle uploads")
	f.BoolVarP(&inv.GenPaper, "gen-paper", "b", false, "also generate the question paper (solutions hidden)")
	f.BoolVarP(&inv.Generic, "generic", "g", false, "generic mail-merge: single pass, no solution toggling")
	f.StringVarP(&inv.SolStem, "sol-stem", "s", "_sols", "solutions filename stem")
	f.StringVarP(&inv.PaperStem, "paper-stem", "p", "_paper", "question paper filename stem")
	f.StringVarP(&inv.Root, "root", "r", "solutions", "root directory for main (solutions) output")
	f.StringVarP(&inv.QuestDir, "questdir", "q", "questions", "directory for question-paper output")
	f.BoolVarP(&inv.Encrypt, "encrypt", "e", false, "encrypt produced PDFs (AES-256, print-only permissions)")
	f.StringVarP(&inv.Password, "password", "w", "", "owner password for encrypted PDFs")
	f.BoolVar(&inv.Moodle, "moodle", false, "worksheet is a Moodle grading worksheet")
	f.DurationVar(&inv.Timeout, "timeout", 10*time.Minute, "per-compilation timeout (0 disables)")
	f.StringVar(&inv.ReportPath, "report", "", "write a JSON run report to this path")
	f.StringVar(&inv.LatexCmd, "latex", "", "override the latex command (binary plus flags)")
	f.StringVar(&inv.PythonTex, "pythontex", "", "override the pythontex command")
	f.BoolVarP(&inv.Verbose, "verbose", "v", false, "debug logging")
	return cmd
}

// ParseInvocation parses CLI arguments into a canonical Invocation.
// helpOut receives usage text (defaults to stdout); parsing errors are
// returned, not printed. Returns ErrHelp when help was requested.
func ParseInvocation(args []string, helpOut io.Writer) (Invocation, error) {
	if helpOut == nil {
		helpOut = os.Stdout
	}
	var inv Invocation
	cmd := newRootCommand(&inv)
	cmd.SetArgs(args)
	cmd.SetOut(helpOut)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if inv.Template == "" {
		// RunE never ran: cobra handled --help itself.
		return Invocation{}, ErrHelp
	}
	return canonicalize(inv)
}

func canonicalize(inv Invocation) (Invocation, error) {
	inv.Template = filepath.Clean(inv.Template)
	inv.Worksheet = filepath.Clean(inv.Worksheet)
	inv.Root = filepath.Clean(inv.Root)
	inv.QuestDir = filepath.Clean(inv.QuestDir)

	if inv.Generic {
		// Generic mail-merge has no solutions to toggle and no paper run.
		inv.GenPaper = false
		if inv.Moodle {
			return Invocation{}, invalidInvocationf("--moodle applies to assignment mode, not -g")
		}
	}

	if inv.Moodle {
		// Moodle worksheets carry fixed columns (MoodleID, FullName,
		// StudentID). The per-student filename suffix and the Moodle
		// submission-folder convention are appended here; mode stems are
		// appended later, per artifact.
		inv.FileMask += "#2_#3"
		inv.FolderMask = "#2_#1_assignsubmission_" + inv.FolderMask + "_"
	}
	if inv.FileMask == "" {
		return Invocation{}, invalidInvocationf("filename mask (-t) must not be empty")
	}

	if inv.Encrypt && inv.Password == "" {
		return Invocation{}, invalidInvocationf("-e requires a password (-w)")
	}
	if inv.GenPaper && inv.QuestDir == inv.Root {
		return Invocation{}, invalidInvocationf("questdir and root must differ, both are %q", inv.Root)
	}
	if inv.Timeout < 0 {
		return Invocation{}, invalidInvocationf("--timeout must not be negative")
	}
	return inv, nil
}

// ExitCodeFor extracts a semantic exit code from a ParseInvocation error.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.ExitCode
	}
	return ExitInternalError
}
