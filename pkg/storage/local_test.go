package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(l.Root()); err != nil || !fi.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	writeString(t, l, "nested/dir/store.json", "first")
	writeString(t, l, "nested/dir/store.json", "second")
	if got := readString(t, l, "nested/dir/store.json"); got != "second" {
		t.Fatalf("Read = %q, want second", got)
	}

	ok, err := l.Exists(ctx, "nested/dir/store.json")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := l.Delete(ctx, "nested/dir/store.json"); err != nil {
		t.Fatal(err)
	}
	if err := l.Delete(ctx, "nested/dir/store.json"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := l.Read(ctx, "nested/dir/store.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read after delete = %v", err)
	}
}

func TestLocalWriteInvisibleUntilClose(t *testing.T) {
	l := newLocal(t)
	writeString(t, l, "store.json", "old")

	w, err := l.Write(context.Background(), "store.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "new"); err != nil {
		t.Fatal(err)
	}
	if got := readString(t, l, "store.json"); got != "old" {
		t.Fatalf("before Close = %q, want old", got)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readString(t, l, "store.json"); got != "new" {
		t.Fatalf("after Close = %q, want new", got)
	}
	assertNoTempFiles(t, l.Root())
}

func TestLocalAbort(t *testing.T) {
	l := newLocal(t)
	writeString(t, l, "store.json", "old")

	w, err := l.Write(context.Background(), "store.json")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "torn")
	if err := Abort(w); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close after Abort: %v", err)
	}
	if got := readString(t, l, "store.json"); got != "old" {
		t.Fatalf("after abort = %q, want old", got)
	}
	assertNoTempFiles(t, l.Root())
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "store.json" {
			t.Errorf("leftover file %q", e.Name())
		}
	}
}
