// Package snapshot implements vecindex.Adapter over the repository's
// storage backends.
//
// [File] writes the JSON array form, one snapshot per file, to any
// storage.FileStore (local disk or S3). [KV] stores the msgpack form under
// one key per snapshot in a kv.Store (memory or Badger).
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kaptinlin/jsonrepair"

	"github.com/haivivi/vecdb/pkg/storage"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

// FileOptions configures [NewFile].
type FileOptions struct {
	// Repair retries malformed snapshots through jsonrepair before
	// failing. Truncated files from a crash on a non-atomic store are the
	// usual case.
	Repair bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// File stores snapshots as JSON files in a storage.FileStore.
type File[M any] struct {
	fs   storage.FileStore
	opts FileOptions
	log  *slog.Logger
}

var _ vecindex.Adapter[any] = (*File[any])(nil)

// NewFile creates a File adapter on fs.
func NewFile[M any](fs storage.FileStore, opts FileOptions) *File[M] {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &File[M]{fs: fs, opts: opts, log: log}
}

// Save replaces the file at key with exactly the JSON array, no trailing
// newline, so the file size matches the size the index budgets for. A
// failed encode or write leaves the previous file in place.
func (f *File[M]) Save(ctx context.Context, key string, records []vecindex.Record[M]) error {
	if records == nil {
		records = []vecindex.Record[M]{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}
	w, err := f.fs.Write(ctx, key)
	if err != nil {
		return fmt.Errorf("snapshot: open %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		storage.Abort(w)
		return fmt.Errorf("snapshot: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", key, err)
	}
	return nil
}

// Load reads the file at key. A missing file yields no records.
func (f *File[M]) Load(ctx context.Context, key string) ([]vecindex.Record[M], error) {
	r, err := f.fs.Read(ctx, key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", key, err)
	}
	records, err := f.decode(key, data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	return records, nil
}

func (f *File[M]) decode(key string, data []byte) ([]vecindex.Record[M], error) {
	var records []vecindex.Record[M]
	err := json.Unmarshal(data, &records)
	if err == nil {
		return records, nil
	}
	var syn *json.SyntaxError
	if !f.opts.Repair || !errors.As(err, &syn) {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return nil, errors.Join(err, rerr)
	}
	records = nil
	if err := json.Unmarshal([]byte(fixed), &records); err != nil {
		return nil, err
	}
	f.log.Warn("snapshot: repaired malformed snapshot", "key", key, "records", len(records), "offset", syn.Offset)
	return records, nil
}

// Exists reports whether a file is stored at key.
func (f *File[M]) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := f.fs.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("snapshot: stat %s: %w", key, err)
	}
	return ok, nil
}
