package route

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"genassign/internal/compile"
	"genassign/internal/texmerge"
	"genassign/internal/worksheet"
)

// ext is the artifact extension the toolchain produces.
const ext = ".pdf"

// Router files compiled artifacts at
// <mode root>/<folder mask expansion>/<file mask expansion><mode stem>.pdf.
// Solution and generic artifacts live under Root; paper artifacts under
// QuestDir, so the two renderings of a record never collide.
type Router struct {
	Root       string
	QuestDir   string
	FileMask   string
	FolderMask string
	SolStem    string
	PaperStem  string

	// Encryptor, when non-nil, encrypts each artifact before placement.
	Encryptor *Encryptor

	Logger *zap.Logger
}

// Reset clears the output roots so a re-run never mixes artifacts from an
// earlier batch. Placement collisions after Reset are genuine mask
// collisions between records of this run.
func (r *Router) Reset(paper bool) error {
	roots := []string{r.Root}
	if paper {
		roots = append(roots, r.QuestDir)
	}
	for _, root := range roots {
		clean := filepath.Clean(root)
		if clean == "/" || clean == "." {
			// Never recursively delete the working directory or the root fs.
			continue
		}
		if err := os.RemoveAll(clean); err != nil {
			return &RoutingError{Msg: "clear output root " + clean, Cause: err}
		}
	}
	return nil
}

// DestFor computes the destination path for an artifact without touching the
// filesystem.
func (r *Router) DestFor(art *compile.Artifact, rec worksheet.Record) (string, error) {
	folder, err := Demask(r.FolderMask, rec)
	if err != nil {
		return "", err
	}
	file, err := Demask(r.FileMask, rec)
	if err != nil {
		return "", err
	}
	file += art.Mode.Stem(r.SolStem, r.PaperStem) + ext

	root := r.Root
	if art.Mode == texmerge.ModePaper {
		root = r.QuestDir
	}
	return filepath.Join(root, folder, file), nil
}

// Place moves the artifact to its destination, creating directories as
// needed. The write is atomic, and an existing destination is an error: an
// artifact from a different record is never silently overwritten. When an
// Encryptor is configured, the scratch copy is encrypted before the move,
// so a failed encryption leaves nothing in the output tree.
func (r *Router) Place(art *compile.Artifact, rec worksheet.Record) (string, error) {
	dest, err := r.DestFor(art, rec)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dest); err == nil {
		return "", &RoutingError{Record: rec.Identity(),
			Msg: fmt.Sprintf("destination %s already exists; file/folder masks do not distinguish this record", dest)}
	}

	if r.Encryptor != nil {
		if err := r.Encryptor.EncryptInPlace(art.Path); err != nil {
			return "", &RoutingError{Record: rec.Identity(), Msg: "encrypt " + art.Path, Cause: err}
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", &RoutingError{Record: rec.Identity(), Msg: "create " + filepath.Dir(dest), Cause: err}
	}

	src, err := os.Open(art.Path)
	if err != nil {
		return "", &RoutingError{Record: rec.Identity(), Msg: "open artifact " + art.Path, Cause: err}
	}
	err = atomic.WriteFile(dest, src)
	src.Close()
	if err != nil {
		return "", &RoutingError{Record: rec.Identity(), Msg: "write " + dest, Cause: err}
	}
	_ = os.Remove(art.Path)

	if r.Logger != nil {
		r.Logger.Info("routed artifact",
			zap.String("record", rec.Identity()),
			zap.String("mode", string(art.Mode)),
			zap.String("dest", dest))
	}
	return dest, nil
}
