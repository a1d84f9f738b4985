package route

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genassign/internal/compile"
	"genassign/internal/texmerge"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	base := t.TempDir()
	return &Router{
		Root:       filepath.Join(base, "solutions"),
		QuestDir:   filepath.Join(base, "questions"),
		FileMask:   "Test_#1",
		FolderMask: "file",
		SolStem:    "_sols",
		PaperStem:  "_paper",
	}
}

func artifact(t *testing.T, mode texmerge.Mode, recordID string) *compile.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "merge.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-stub "+recordID), 0o644))
	return &compile.Artifact{Path: path, Mode: mode, RecordID: recordID}
}

func TestPlace_SolutionUnderRootWithStem(t *testing.T) {
	r := testRouter(t)
	rec := record(t, "001", "Alice")

	dest, err := r.Place(artifact(t, texmerge.ModeSolution, "001"), rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Root, "file", "Test_001_sols.pdf"), dest)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub 001", string(b))
}

func TestPlace_PaperUnderQuestDir(t *testing.T) {
	r := testRouter(t)
	rec := record(t, "001", "Alice")

	dest, err := r.Place(artifact(t, texmerge.ModePaper, "001"), rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.QuestDir, "file", "Test_001_paper.pdf"), dest)
}

func TestPlace_GenericHasNoStem(t *testing.T) {
	r := testRouter(t)
	rec := record(t, "001", "Alice")

	dest, err := r.Place(artifact(t, texmerge.ModeGeneric, "001"), rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Root, "file", "Test_001.pdf"), dest)
}

func TestPlace_RemovesSourceArtifact(t *testing.T) {
	r := testRouter(t)
	art := artifact(t, texmerge.ModeSolution, "001")

	_, err := r.Place(art, record(t, "001"))
	require.NoError(t, err)
	_, statErr := os.Stat(art.Path)
	assert.True(t, os.IsNotExist(statErr), "scratch copy should be gone after placement")
}

func TestPlace_NeverOverwritesExistingDestination(t *testing.T) {
	r := testRouter(t)
	// Two records whose masks collapse to the same destination.
	recA := record(t, "001", "Alice")
	recB := record(t, "001", "Bob")

	_, err := r.Place(artifact(t, texmerge.ModeSolution, "001"), recA)
	require.NoError(t, err)

	_, err = r.Place(artifact(t, texmerge.ModeSolution, "001"), recB)
	var re *RoutingError
	require.ErrorAs(t, err, &re)

	// The first record's artifact is untouched.
	b, err := os.ReadFile(filepath.Join(r.Root, "file", "Test_001_sols.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub 001", string(b))
}

func TestPlace_FailedEncryptionPlacesNothing(t *testing.T) {
	r := testRouter(t)
	r.Encryptor = &Encryptor{Password: "pw"}
	// The stub artifact is not a parseable PDF, so encryption fails.
	art := artifact(t, texmerge.ModeSolution, "001")

	_, err := r.Place(art, record(t, "001", "Alice"))
	var re *RoutingError
	require.ErrorAs(t, err, &re)

	_, statErr := os.Stat(r.Root)
	assert.True(t, os.IsNotExist(statErr), "no readable artifact may reach the output tree")
}

func TestPlace_EncryptsBeforePlacement(t *testing.T) {
	r := testRouter(t)
	r.Encryptor = &Encryptor{Password: "pw"}
	art := &compile.Artifact{Path: writeMinimalPDF(t), Mode: texmerge.ModeSolution, RecordID: "001"}

	dest, err := r.Place(art, record(t, "001", "Alice"))
	require.NoError(t, err)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(b), "/Encrypt")
	_, statErr := os.Stat(art.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPlace_MaskErrorWritesNothing(t *testing.T) {
	r := testRouter(t)
	r.FileMask = "Test_#5"
	rec := record(t, "001", "Alice", "x")

	_, err := r.Place(artifact(t, texmerge.ModeSolution, "001"), rec)
	var re *RoutingError
	require.ErrorAs(t, err, &re)

	_, statErr := os.Stat(r.Root)
	assert.True(t, os.IsNotExist(statErr), "no output tree should exist")
}

func TestReset_ClearsOutputRoots(t *testing.T) {
	r := testRouter(t)
	stale := filepath.Join(r.Root, "file", "old.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, r.Reset(true))
	_, err := os.Stat(r.Root)
	assert.True(t, os.IsNotExist(err))
}

func TestReset_RefusesDotAndSlash(t *testing.T) {
	r := &Router{Root: ".", QuestDir: "/"}
	// Must not delete the working directory; Reset skips these roots.
	require.NoError(t, r.Reset(true))
	_, err := os.Stat(".")
	assert.NoError(t, err)
}
