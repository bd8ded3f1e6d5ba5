package snapshot_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/haivivi/vecdb/pkg/kv"
	"github.com/haivivi/vecdb/pkg/snapshot"
	"github.com/haivivi/vecdb/pkg/storage"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

type meta struct {
	Source string `json:"source,omitempty" msgpack:"source,omitempty"`
}

var sample = []vecindex.Record[meta]{
	{Content: "first", Vector: []float32{1, 0}},
	{Content: "second", Vector: []float32{0.25, -1}, Metadata: meta{Source: "notes.md"}},
}

func newLocal(t *testing.T) *storage.Local {
	t.Helper()
	l, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func adapters(t *testing.T) map[string]vecindex.Adapter[meta] {
	t.Helper()
	bdg, err := kv.NewBadger(kv.BadgerOptions{Options: &kv.Options{Separator: 0x1F}, InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bdg.Close() })
	return map[string]vecindex.Adapter[meta]{
		"file":   snapshot.NewFile[meta](newLocal(t), snapshot.FileOptions{}),
		"memory": snapshot.NewKV[meta](kv.NewMemory(&kv.Options{Separator: 0x1F}), ""),
		"badger": snapshot.NewKV[meta](bdg, "idx"),
	}
}

func TestAdapterRoundTrip(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "data/C:/store.json"

			ok, err := a.Exists(ctx, key)
			if err != nil || ok {
				t.Fatalf("Exists before save = %v, %v", ok, err)
			}
			recs, err := a.Load(ctx, key)
			if err != nil || len(recs) != 0 {
				t.Fatalf("Load missing = %v, %v", recs, err)
			}

			if err := a.Save(ctx, key, sample); err != nil {
				t.Fatalf("Save: %v", err)
			}
			ok, err = a.Exists(ctx, key)
			if err != nil || !ok {
				t.Fatalf("Exists after save = %v, %v", ok, err)
			}
			recs, err = a.Load(ctx, key)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(recs) != len(sample) {
				t.Fatalf("Load = %+v", recs)
			}
			for i := range sample {
				if recs[i].Content != sample[i].Content ||
					!slices.Equal(recs[i].Vector, sample[i].Vector) ||
					recs[i].Metadata != sample[i].Metadata {
					t.Errorf("record %d = %+v, want %+v", i, recs[i], sample[i])
				}
			}

			// An empty snapshot is still a snapshot.
			if err := a.Save(ctx, key, nil); err != nil {
				t.Fatal(err)
			}
			recs, err = a.Load(ctx, key)
			if err != nil || len(recs) != 0 {
				t.Fatalf("Load empty = %v, %v", recs, err)
			}
			if ok, _ := a.Exists(ctx, key); !ok {
				t.Fatal("empty snapshot not stored")
			}
		})
	}
}

func TestFileFormat(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	a := snapshot.NewFile[meta](l, snapshot.FileOptions{})
	if err := a.Save(ctx, "nested/store.json", sample); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(l.Root(), "nested", "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	want := `[["first",[1,0],{}],["second",[0.25,-1],{"source":"notes.md"}]]`
	if string(data) != want {
		t.Fatalf("file = %s, want %s", data, want)
	}
}

func TestFileRepair(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	truncated := `[["a",[1]],["b",[2]`
	w, _ := l.Write(ctx, "torn.json")
	io.WriteString(w, truncated)
	w.Close()

	strict := snapshot.NewFile[meta](l, snapshot.FileOptions{})
	if _, err := strict.Load(ctx, "torn.json"); err == nil {
		t.Fatal("strict Load accepted truncated JSON")
	}

	lenient := snapshot.NewFile[meta](l, snapshot.FileOptions{Repair: true})
	recs, err := lenient.Load(ctx, "torn.json")
	if err != nil {
		t.Fatalf("repair Load: %v", err)
	}
	if len(recs) != 2 || recs[1].Content != "b" {
		t.Fatalf("repaired = %+v", recs)
	}
}

func TestFileEncodeErrorKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	a := snapshot.NewFile[any](l, snapshot.FileOptions{})

	good := []vecindex.Record[any]{{Content: "kept", Vector: []float32{1}}}
	if err := a.Save(ctx, "s.json", good); err != nil {
		t.Fatal(err)
	}
	bad := []vecindex.Record[any]{{Content: "x", Vector: []float32{1}, Metadata: make(chan int)}}
	if err := a.Save(ctx, "s.json", bad); err == nil {
		t.Fatal("expected encode error")
	}
	recs, err := a.Load(ctx, "s.json")
	if err != nil || len(recs) != 1 || recs[0].Content != "kept" {
		t.Fatalf("Load after failed save = %+v, %v", recs, err)
	}
}

func TestFileExactFitStaysWithinBound(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	one := func(context.Context, string) ([]float32, error) { return []float32{1}, nil }

	// ["a",[1]],["b",[1]],["c",[1]] inside [] is 31 bytes.
	const limit = 31
	ix, err := vecindex.New[any](ctx, one, snapshot.NewFile[any](l, snapshot.FileOptions{}), vecindex.Config{
		StoragePath:     "fit.json",
		MaxFileSizeMB:   limit / (1024.0 * 1024.0),
		DisableAutoSave: true,
		SaveDelay:       time.Millisecond,
		Registry:        vecindex.NewRegistry(),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"a", "b", "c"} {
		if _, err := ix.AddText(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := ix.Save(ctx); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(l.Root(), "fit.json"))
	if err != nil {
		t.Fatal(err)
	}
	if ix.Count() != 3 || len(data) != limit {
		t.Fatalf("count = %d, file = %q (%d bytes), limit %d", ix.Count(), data, len(data), limit)
	}
}

func TestKVKeyLayout(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(&kv.Options{Separator: 0x1F})
	a := snapshot.NewKV[meta](store, "")
	if err := a.Save(ctx, "a:b.json", sample); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, kv.Key{snapshot.DefaultKVPrefix, "a:b.json"}); err != nil {
		t.Fatalf("value not under {prefix, path}: %v", err)
	}
}

type failingStore struct{ kv.Store }

var errStore = errors.New("store down")

func (failingStore) Get(context.Context, kv.Key) ([]byte, error) { return nil, errStore }
func (failingStore) Has(context.Context, kv.Key) (bool, error)   { return false, errStore }

func TestKVErrors(t *testing.T) {
	ctx := context.Background()
	a := snapshot.NewKV[meta](failingStore{kv.NewMemory(nil)}, "")
	if _, err := a.Load(ctx, "x"); !errors.Is(err, errStore) {
		t.Errorf("Load = %v", err)
	}
	if _, err := a.Exists(ctx, "x"); !errors.Is(err, errStore) {
		t.Errorf("Exists = %v", err)
	}

	store := kv.NewMemory(nil)
	store.Set(ctx, kv.Key{snapshot.DefaultKVPrefix, "garbage"}, []byte{0xc1})
	if _, err := snapshot.NewKV[meta](store, "").Load(ctx, "garbage"); err == nil {
		t.Error("Load accepted garbage")
	}
}

func TestIndexOverLocalFiles(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	embed := func(_ context.Context, s string) ([]float32, error) {
		return []float32{float32(len(s)), 1}, nil
	}
	open := func() *vecindex.Index[meta] {
		ix, err := vecindex.New[meta](ctx, embed, snapshot.NewFile[meta](l, snapshot.FileOptions{}), vecindex.Config{
			StoragePath: "indexes/notes.json",
			Registry:    vecindex.NewRegistry(),
			SaveDelay:   time.Millisecond,
		})
		if err != nil {
			t.Fatal(err)
		}
		return ix
	}

	ix := open()
	ix.Add(ctx, vecindex.NewDocument("hello", meta{Source: "greeting"}))
	ix.AddText(ctx, "bye")
	if err := ix.Save(ctx); err != nil {
		t.Fatal(err)
	}

	all := open().GetAll()
	if len(all) != 2 || all[0].Content != "hello" || all[0].Metadata.Source != "greeting" || all[1].Content != "bye" {
		t.Fatalf("reloaded = %+v", all)
	}
}
