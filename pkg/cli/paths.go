package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the vecdb directory structure
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a Paths rooted at the user's home directory
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base vecdb directory (~/.vecdb)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the config file path (~/.vecdb/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// DataDir returns the data directory (~/.vecdb/data)
func (p *Paths) DataDir() string {
	return filepath.Join(p.BaseDir(), "data")
}

// DataPath returns a path within the data directory
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir(), name)
}

// EnsureDataDir creates the data directory if it doesn't exist
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0755)
}

// StorageDir returns the directory a context stores its index in:
// Storage.Dir when set, otherwise a per-context directory under the data
// directory.
func (p *Paths) StorageDir(ctx *Context) string {
	if ctx.Storage.Dir != "" {
		return ctx.Storage.Dir
	}
	return filepath.Join(p.DataPath(ctx.Name), ctx.Backend())
}
