// Package datasource defines the input abstraction the importer reads data
// files through.
package datasource

import (
	"context"
	"io"
)

// Source opens one input stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
