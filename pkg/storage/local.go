package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local implements FileStore on the local filesystem. All paths resolve
// under the root directory.
//
// Writes go to a temporary file next to the target and are renamed into
// place on Close, so a crash mid-write leaves the previous file intact.
type Local struct {
	root string
}

var _ FileStore = (*Local)(nil)

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Read opens the named file for reading.
func (l *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(l.resolve(path))
}

// Write returns a writer whose content replaces the named file on Close.
func (l *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full := l.resolve(path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &atomicFile{f: tmp, target: full}, nil
}

// Delete removes the named file.
func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether the named file exists.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// atomicFile writes into a temp file and renames it over target on Close.
// A failed Write poisons the file: Close then discards instead of renaming.
type atomicFile struct {
	f      *os.File
	target string
	err    error
	closed bool
}

func (a *atomicFile) Write(p []byte) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	n, err := a.f.Write(p)
	if err != nil {
		a.err = err
	}
	return n, err
}

func (a *atomicFile) Close() error {
	if a.closed {
		return nil
	}
	if a.err != nil {
		a.discard()
		return a.err
	}
	a.closed = true
	if err := a.f.Sync(); err != nil {
		a.f.Close()
		os.Remove(a.f.Name())
		return err
	}
	if err := a.f.Close(); err != nil {
		os.Remove(a.f.Name())
		return err
	}
	if err := os.Rename(a.f.Name(), a.target); err != nil {
		os.Remove(a.f.Name())
		return err
	}
	return nil
}

// Abort discards the temp file; the target is left untouched.
func (a *atomicFile) Abort() error {
	if a.closed {
		return nil
	}
	if a.err == nil {
		a.err = ErrAborted
	}
	a.discard()
	return nil
}

func (a *atomicFile) discard() {
	a.closed = true
	a.f.Close()
	os.Remove(a.f.Name())
}
