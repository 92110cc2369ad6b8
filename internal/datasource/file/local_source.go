package file

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"fwimport/internal/datasource"
)

// errNotRegular is returned by Open for paths that are not regular files.
var errNotRegular = errors.New("not a regular file")

// Local is one data file on the local disk.
type Local struct{ path string }

var _ datasource.Source = (*Local)(nil)

// NewLocal binds a Local to path. Nothing is opened until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the path Open reads.
func (l *Local) Path() string { return l.path }

// Open returns the data file with sequential readahead requested. It returns
// ctx.Err() when ctx is already done. Filesystem failures are the
// *fs.PathError from the os package, which names the path once.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, &fs.PathError{Op: "open", Path: l.path, Err: errNotRegular}
	}
	adviseSequential(f)
	return f, nil
}
