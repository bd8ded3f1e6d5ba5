// Package vecdb opens vecindex indexes on concrete backends with the size
// limits each backend can sustain.
//
// Key-value backends hold a snapshot in a single value, so they get the
// tight [KVLimits] (0.1 to 3 MB). File and object backends get [FileLimits]
// (1 to 1000 MB). The limits are applied to Options.MaxFileSizeMB before
// the index is opened.
package vecdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haivivi/vecdb/pkg/kv"
	"github.com/haivivi/vecdb/pkg/snapshot"
	"github.com/haivivi/vecdb/pkg/storage"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

// DefaultStoragePath is used when Options.StoragePath is empty.
const DefaultStoragePath = "vectors.json"

// Limits bounds MaxFileSizeMB for a class of backend.
type Limits struct {
	Min, Max, Default float64
}

var (
	KVLimits   = Limits{Min: 0.1, Max: 3, Default: 3}
	FileLimits = Limits{Min: 1, Max: 1000, Default: 100}
)

// Clamp returns mb bounded to [Min, Max]. Zero or negative means Default.
func (l Limits) Clamp(mb float64) float64 {
	if mb <= 0 {
		return l.Default
	}
	return max(l.Min, min(l.Max, mb))
}

// Options configures the Open functions. Zero values pick defaults.
type Options struct {
	StoragePath     string
	MaxFileSizeMB   float64
	DisableAutoSave bool
	Debug           bool
	SaveDelay       time.Duration
	Logger          *slog.Logger
	Registry        *vecindex.Registry
}

func (o Options) config(l Limits) vecindex.Config {
	path := o.StoragePath
	if path == "" {
		path = DefaultStoragePath
	}
	return vecindex.Config{
		StoragePath:     path,
		MaxFileSizeMB:   l.Clamp(o.MaxFileSizeMB),
		DisableAutoSave: o.DisableAutoSave,
		Debug:           o.Debug,
		SaveDelay:       o.SaveDelay,
		Logger:          o.Logger,
		Registry:        o.Registry,
	}
}

// OpenFile opens an index whose snapshots are JSON files in fs.
// Malformed snapshots are repaired when possible.
func OpenFile[M any](ctx context.Context, embed vecindex.EmbedFunc, fs storage.FileStore, opts Options) (*vecindex.Index[M], error) {
	adapter := snapshot.NewFile[M](fs, snapshot.FileOptions{Repair: true, Logger: opts.Logger})
	return vecindex.New[M](ctx, embed, adapter, opts.config(FileLimits))
}

// OpenLocal is OpenFile on a local directory.
func OpenLocal[M any](ctx context.Context, embed vecindex.EmbedFunc, dir string, opts Options) (*vecindex.Index[M], error) {
	fs, err := storage.NewLocal(dir)
	if err != nil {
		return nil, fmt.Errorf("vecdb: open %s: %w", dir, err)
	}
	return OpenFile[M](ctx, embed, fs, opts)
}

// OpenS3 opens an index whose snapshots are JSON objects in an S3 bucket.
func OpenS3[M any](ctx context.Context, embed vecindex.EmbedFunc, client storage.S3Client, s3opts storage.S3Options, opts Options) (*vecindex.Index[M], error) {
	if s3opts.ContentType == "" {
		s3opts.ContentType = "application/json"
	}
	fs, err := storage.NewS3(client, s3opts)
	if err != nil {
		return nil, fmt.Errorf("vecdb: %w", err)
	}
	return OpenFile[M](ctx, embed, fs, opts)
}

// OpenKV opens an index whose snapshots are msgpack values in store, under
// snapshot.DefaultKVPrefix.
func OpenKV[M any](ctx context.Context, embed vecindex.EmbedFunc, store kv.Store, opts Options) (*vecindex.Index[M], error) {
	adapter := snapshot.NewKV[M](store, "")
	return vecindex.New[M](ctx, embed, adapter, opts.config(KVLimits))
}
