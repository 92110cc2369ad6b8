// Package archive moves consumed data files into the archive directory and
// can move them back when the job that consumed them is rolled back.
//
// A file keeps its name in the archive; an existing archive entry with the
// same name is overwritten. Moves use rename(2). When source and archive
// live on different filesystems the file is copied, the copy is verified
// against the source with an xxh3 digest, and only then is the source
// removed.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
	"golang.org/x/sys/unix"

	"fwimport/internal/errs"
)

// Move records one completed move so it can be undone.
type Move struct {
	From string
	To   string
}

// Archiver moves files into Dir.
type Archiver struct {
	Dir string

	// rename is os.Rename; tests replace it to simulate EXDEV and failures.
	rename func(oldpath, newpath string) error
}

// New returns an Archiver for dir.
func New(dir string) *Archiver {
	return &Archiver{Dir: dir, rename: os.Rename}
}

// Move moves src into the archive directory. Errors are KindArchive.
func (a *Archiver) Move(ctx context.Context, src string) (Move, error) {
	if err := ctx.Err(); err != nil {
		return Move{}, errs.At(errs.KindArchive, "archive", src, 0, err)
	}
	m := Move{From: src, To: filepath.Join(a.Dir, filepath.Base(src))}
	if err := a.move(m.From, m.To); err != nil {
		return Move{}, errs.At(errs.KindArchive, "archive", src, 0, err)
	}
	return m, nil
}

// MoveAll moves every file in order and stops at the first failure. The
// moves completed before the failure are returned either way so the caller
// can Restore them.
func (a *Archiver) MoveAll(ctx context.Context, srcs []string) ([]Move, error) {
	moves := make([]Move, 0, len(srcs))
	for _, src := range srcs {
		m, err := a.Move(ctx, src)
		if err != nil {
			return moves, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// Restore undoes moves in reverse order. It attempts every move and joins
// the failures. An archive entry overwritten by a move cannot be recovered.
func (a *Archiver) Restore(moves []Move) error {
	var errList []error
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		if err := a.move(m.To, m.From); err != nil {
			errList = append(errList, errs.At(errs.KindArchive, "restore", m.From, 0, err))
		}
	}
	return errors.Join(errList...)
}

func (a *Archiver) move(src, dst string) error {
	err := a.rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return err
	}
	return copyVerifyRemove(src, dst)
}

// copyVerifyRemove is the cross-device path: copy into a temp file beside
// dst, compare digests, rename over dst and finally remove src.
func copyVerifyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	srcSum := xxh3.New()
	if _, err := io.Copy(io.MultiWriter(tmp, srcSum), in); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	_ = os.Chmod(tmpName, fi.Mode().Perm())

	dstSum, err := digest(tmpName)
	if err != nil {
		cleanup()
		return err
	}
	if dstSum != srcSum.Sum64() {
		cleanup()
		return fmt.Errorf("verify %s: digest mismatch after copy", dst)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return err
	}
	return os.Remove(src)
}

// digest returns the xxh3 digest of the file at path.
func digest(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
