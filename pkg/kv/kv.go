// Package kv provides a small key-value store interface with hierarchical
// keys, used as the blob backend for key-addressed snapshots.
//
// Keys are string slices (e.g. ["vecdb", "notes.json"]) encoded with a
// configurable separator byte (default ':'). Two implementations are
// provided: [Memory] for tests and ephemeral use, and [Badger] for on-disk
// persistence.
package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path of string segments.
//
// Segments must not contain the configured separator.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Store is a key-value store addressed by [Key].
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// Has reports whether key exists.
	Has(ctx context.Context, key Key) (bool, error)

	// Close releases resources held by the store.
	Close() error
}

// DefaultSeparator joins key segments when no separator is configured.
const DefaultSeparator byte = ':'

// Options configures key encoding. A nil *Options uses the defaults.
type Options struct {
	// Separator joins key segments. Zero means DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// encode joins k with the separator into a single byte key.
func (o *Options) encode(k Key) []byte {
	n := 0
	for i, seg := range k {
		if i > 0 {
			n++
		}
		n += len(seg)
	}
	buf := make([]byte, 0, n)
	for i, seg := range k {
		if i > 0 {
			buf = append(buf, o.sep())
		}
		buf = append(buf, seg...)
	}
	return buf
}

// ValidKey reports whether every segment of k is free of the separator.
func (o *Options) ValidKey(k Key) bool {
	sep := string([]byte{o.sep()})
	for _, seg := range k {
		if strings.Contains(seg, sep) {
			return false
		}
	}
	return true
}
