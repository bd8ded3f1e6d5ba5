package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths()
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}

	if paths.HomeDir == "" {
		t.Error("HomeDir should not be empty")
	}
}

func TestPaths_Layout(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", paths.BaseDir(), filepath.Join(tmpDir, ".vecdb")},
		{"ConfigFile", paths.ConfigFile(), filepath.Join(tmpDir, ".vecdb", "config.yaml")},
		{"DataDir", paths.DataDir(), filepath.Join(tmpDir, ".vecdb", "data")},
		{"DataPath", paths.DataPath("notes"), filepath.Join(tmpDir, ".vecdb", "data", "notes")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestPaths_StorageDir(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	ctx := &Context{Name: "notes", Storage: Storage{Backend: BackendBadger}}
	want := filepath.Join(tmpDir, ".vecdb", "data", "notes", "badger")
	if got := paths.StorageDir(ctx); got != want {
		t.Errorf("StorageDir = %q, want %q", got, want)
	}

	ctx.Storage.Dir = "/srv/vectors"
	if got := paths.StorageDir(ctx); got != "/srv/vectors" {
		t.Errorf("StorageDir with Dir = %q", got)
	}
}

func TestPaths_EnsureDataDir(t *testing.T) {
	paths := &Paths{HomeDir: t.TempDir()}

	if err := paths.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir error: %v", err)
	}

	info, err := os.Stat(paths.DataDir())
	if err != nil {
		t.Fatalf("DataDir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("DataDir is not a directory")
	}

	// Idempotent.
	if err := paths.EnsureDataDir(); err != nil {
		t.Errorf("second EnsureDataDir error: %v", err)
	}
}
