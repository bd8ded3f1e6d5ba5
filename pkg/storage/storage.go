// Package storage defines the FileStore interface used to persist index
// snapshots, with a local-disk and an S3 implementation.
//
// Writers returned by a FileStore publish their content on Close. Writers
// that also implement [Aborter] can discard what was written so far, which
// lets callers bail out of a failed encode without clobbering the previous
// snapshot.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrAborted is the error an aborted upload or write reports.
var ErrAborted = errors.New("storage: write aborted")

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading.
	// If the file does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing. The new content replaces the
	// old one when the writer is closed. Parent directories are created on
	// demand.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Deleting a missing file returns nil.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// Aborter is implemented by writers that can drop partial output.
// After Abort, Close must not publish anything.
type Aborter interface {
	Abort() error
}

// Abort discards w if it supports it and closes it otherwise.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}
