package vecindex

import (
	"log/slog"
	"time"
)

const (
	// DefaultK is the result count callers use when they have no preference.
	DefaultK = 4

	// DefaultSaveDelay is the debounce window applied to saves.
	DefaultSaveDelay = 100 * time.Millisecond

	bytesPerMB = 1024 * 1024
)

// Config configures an [Index].
type Config struct {
	// StoragePath identifies the snapshot in the adapter and is the key
	// under which handles share state in the Registry. Empty means the
	// index is private and never persisted.
	StoragePath string

	// MaxFileSizeMB bounds the JSON size of a snapshot, in units of
	// 1024*1024 bytes. When a snapshot would exceed it, the oldest entries
	// are evicted. Zero or negative disables the bound.
	MaxFileSizeMB float64

	// DisableAutoSave stops mutations from scheduling a save. Callers then
	// persist with Index.Save.
	DisableAutoSave bool

	// Debug logs evictions and completed saves.
	Debug bool

	// SaveDelay is the debounce window. Zero means DefaultSaveDelay.
	SaveDelay time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Registry holds shared state per storage path. Nil means
	// DefaultRegistry.
	Registry *Registry
}

func (c Config) saveDelay() time.Duration {
	if c.SaveDelay > 0 {
		return c.SaveDelay
	}
	return DefaultSaveDelay
}

func (c Config) maxBytes() int {
	if c.MaxFileSizeMB <= 0 {
		return 0
	}
	return max(1, int(c.MaxFileSizeMB*bytesPerMB))
}

func (c Config) registry() *Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return DefaultRegistry
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
