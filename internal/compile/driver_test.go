package compile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genassign/internal/texmerge"
)

// stubScript writes an executable shell script standing in for a toolchain
// binary. Scripts run with the scratch directory as cwd, like the real
// tools.
func stubScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func okToolchain(t *testing.T) Toolchain {
	t.Helper()
	return Toolchain{
		Latex:     []string{stubScript(t, `echo latex >> passes.log; printf '%%PDF-stub' > merge.pdf`)},
		PythonTex: []string{stubScript(t, `echo pythontex >> passes.log`)},
	}
}

func newTestDriver(t *testing.T, tc Toolchain) *Driver {
	t.Helper()
	return &Driver{Workspace: t.TempDir(), Toolchain: tc}
}

func TestCompile_SolutionRunsFullPassSequence(t *testing.T) {
	d := newTestDriver(t, okToolchain(t))
	job, err := d.NewJob(1, "001")
	require.NoError(t, err)
	defer job.Close()

	art, err := d.Compile(context.Background(), job, texmerge.Document{Text: "src", Mode: texmerge.ModeSolution})
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, texmerge.ModeSolution, art.Mode)
	assert.Equal(t, "001", art.RecordID)
	assert.FileExists(t, art.Path)

	log, err := os.ReadFile(filepath.Join(job.Scratch, "passes.log"))
	require.NoError(t, err)
	assert.Equal(t, "latex\npythontex\nlatex\n", string(log))
}

func TestCompile_PaperSkipsPythonTex(t *testing.T) {
	d := newTestDriver(t, okToolchain(t))
	job, err := d.NewJob(1, "001")
	require.NoError(t, err)
	defer job.Close()

	_, err = d.Compile(context.Background(), job, texmerge.Document{Text: "src", Mode: texmerge.ModePaper})
	require.NoError(t, err)

	log, err := os.ReadFile(filepath.Join(job.Scratch, "passes.log"))
	require.NoError(t, err)
	assert.Equal(t, "latex\nlatex\n", string(log))
}

func TestCompile_WritesRenderedSource(t *testing.T) {
	d := newTestDriver(t, okToolchain(t))
	job, err := d.NewJob(2, "002")
	require.NoError(t, err)
	defer job.Close()

	_, err = d.Compile(context.Background(), job, texmerge.Document{Text: "rendered body", Mode: texmerge.ModeGeneric})
	require.NoError(t, err)

	src, err := os.ReadFile(filepath.Join(job.Scratch, "merge.tex"))
	require.NoError(t, err)
	assert.Equal(t, "rendered body", string(src))
}

func TestCompile_FailingPassFailsWholeUnit(t *testing.T) {
	tc := okToolchain(t)
	tc.PythonTex = []string{stubScript(t, `echo boom; exit 7`)}
	d := newTestDriver(t, tc)
	job, err := d.NewJob(1, "001")
	require.NoError(t, err)
	defer job.Close()

	art, err := d.Compile(context.Background(), job, texmerge.Document{Text: "src", Mode: texmerge.ModeSolution})
	assert.Nil(t, art)

	var ce *CompilationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "pythontex", ce.Pass)
	assert.Equal(t, 7, ce.ExitCode)
	assert.Contains(t, ce.LogTail, "boom")
	assert.False(t, ce.Timeout)
}

func TestCompile_CleanExitWithoutPDFIsFailure(t *testing.T) {
	tc := Toolchain{
		Latex:     []string{stubScript(t, `true`)},
		PythonTex: []string{stubScript(t, `true`)},
	}
	d := newTestDriver(t, tc)
	job, err := d.NewJob(1, "001")
	require.NoError(t, err)
	defer job.Close()

	_, err = d.Compile(context.Background(), job, texmerge.Document{Text: "src", Mode: texmerge.ModeGeneric})
	var ce *CompilationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "collect", ce.Pass)
}

func TestCompile_TimeoutKillsPass(t *testing.T) {
	tc := okToolchain(t)
	tc.Latex = []string{stubScript(t, `sleep 5`)}
	d := newTestDriver(t, tc)
	d.Timeout = 200 * time.Millisecond
	job, err := d.NewJob(1, "001")
	require.NoError(t, err)
	defer job.Close()

	start := time.Now()
	_, err = d.Compile(context.Background(), job, texmerge.Document{Text: "src", Mode: texmerge.ModeSolution})
	var ce *CompilationError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Timeout)
	assert.Less(t, time.Since(start), 3*time.Second, "pass must be killed, not waited out")
}

func TestJobClose_RemovesScratchAndIntermediates(t *testing.T) {
	d := newTestDriver(t, okToolchain(t))
	job, err := d.NewJob(1, "001")
	require.NoError(t, err)

	_, err = d.Compile(context.Background(), job, texmerge.Document{Text: "src", Mode: texmerge.ModeSolution})
	require.NoError(t, err)

	require.NoError(t, job.Close())
	_, statErr := os.Stat(job.Scratch)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewJob_PartitionsScratchPerRecord(t *testing.T) {
	d := newTestDriver(t, okToolchain(t))
	j1, err := d.NewJob(1, "001")
	require.NoError(t, err)
	j2, err := d.NewJob(2, "00 2/odd")
	require.NoError(t, err)

	assert.NotEqual(t, j1.Scratch, j2.Scratch)
	assert.NotContains(t, filepath.Base(j2.Scratch), "/")
	assert.NotContains(t, filepath.Base(j2.Scratch), " ")
}
