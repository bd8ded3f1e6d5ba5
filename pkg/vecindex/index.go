// Package vecindex is an in-memory vector index with debounced, size-bounded
// snapshots.
//
// Documents are keyed by their content and stored with a caller-supplied
// embedding in insertion order. Search ranks every stored document by
// cosine similarity to the query; there is no approximate index.
//
// Handles opened with the same StoragePath in the same [Registry] share one
// map: a document added through one handle is visible through all of them.
// Mutations apply immediately and, unless auto-save is disabled, schedule a
// save that is debounced per path. When a snapshot would exceed
// MaxFileSizeMB, the oldest entries are dropped from the snapshot and from
// memory.
//
// Basic usage:
//
//	idx, err := vecindex.New[map[string]any](ctx, embedder.Embed, adapter, vecindex.Config{
//	    StoragePath:   "notes.json",
//	    MaxFileSizeMB: 100,
//	})
//	idx.Add(ctx, vecindex.NewDocument("hello", map[string]any{"lang": "en"}))
//	results, err := idx.SimilaritySearch(ctx, "hi", vecindex.DefaultK, nil)
package vecindex

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Index is a handle on a vector store. Handles are cheap; the data lives
// in the state shared by all handles on the same storage path.
//
// Index is safe for concurrent use.
type Index[M any] struct {
	st      *state[M]
	reg     *Registry
	embed   EmbedFunc
	adapter Adapter[M]
	cfg     Config
	log     *slog.Logger
}

// New opens an index handle.
//
// The first handle on a storage path loads the snapshot through adapter.
// Load failures are logged and the index starts empty. Later handles on
// the same path attach to the loaded state and wait until the first load
// has finished. An empty StoragePath yields a private index that is never
// registered or persisted, and adapter may then be nil.
func New[M any](ctx context.Context, embed EmbedFunc, adapter Adapter[M], cfg Config) (*Index[M], error) {
	if embed == nil {
		return nil, ErrNoEmbedFunc
	}
	if cfg.StoragePath != "" && adapter == nil {
		return nil, ErrNoAdapter
	}

	ix := &Index[M]{
		reg:     cfg.registry(),
		embed:   embed,
		adapter: adapter,
		cfg:     cfg,
	}
	ix.log = cfg.logger().With("storage_path", cfg.StoragePath, "handle", uuid.NewString())

	if cfg.StoragePath == "" {
		ix.st = newState[M]("")
		ix.st.gate.Unlock()
		return ix, nil
	}

	st, created, err := acquire[M](ix.reg, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("vecindex: open %s: %w", cfg.StoragePath, err)
	}
	ix.st = st
	if created {
		ix.load(ctx)
		st.gate.Unlock()
		return ix, nil
	}
	if err := st.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("vecindex: attach %s: %w", cfg.StoragePath, err)
	}
	return ix, nil
}

// StoragePath returns the path the index persists to.
func (ix *Index[M]) StoragePath() string {
	return ix.st.path
}

// Add embeds doc.Content and stores the document, replacing any entry with
// the same content. The replaced entry keeps its position in insertion
// order. Embedding errors are returned wrapped; an unusable vector yields
// an *InvalidVectorError. The index is unchanged on error.
func (ix *Index[M]) Add(ctx context.Context, doc Document[M]) (VectorDocument[M], error) {
	vec, err := ix.embed(ctx, doc.Content)
	if err != nil {
		return VectorDocument[M]{}, fmt.Errorf("vecindex: embed %q: %w", doc.Content, err)
	}
	if err := checkVector(doc.Content, vec); err != nil {
		return VectorDocument[M]{}, err
	}
	vec = slices.Clone(vec)

	ix.st.mu.Lock()
	ix.st.store.Set(doc.Content, entry[M]{vector: vec, metadata: doc.Metadata})
	ix.st.touch()
	ix.st.mu.Unlock()

	ix.autoSave()
	return VectorDocument[M]{Document: doc, Vector: slices.Clone(vec)}, nil
}

// AddText adds content with zero metadata.
func (ix *Index[M]) AddText(ctx context.Context, content string) (VectorDocument[M], error) {
	var zero M
	return ix.Add(ctx, NewDocument(content, zero))
}

// AddDocuments adds docs in order and stops at the first error. It returns
// the documents added before the failure.
func (ix *Index[M]) AddDocuments(ctx context.Context, docs []Document[M]) ([]VectorDocument[M], error) {
	added := make([]VectorDocument[M], 0, len(docs))
	for _, doc := range docs {
		vd, err := ix.Add(ctx, doc)
		if err != nil {
			return added, err
		}
		added = append(added, vd)
	}
	return added, nil
}

// SimilaritySearch returns the k documents most similar to query, best
// first. Ties keep insertion order.
//
// It waits for an in-flight save before reading. If query is itself a
// stored document, its stored vector is used; otherwise query is embedded.
// filter, when non-nil, restricts the candidates before ranking. k <= 0
// returns no results.
func (ix *Index[M]) SimilaritySearch(ctx context.Context, query string, k int, filter Filter[M]) ([]SearchResult[M], error) {
	if err := ix.st.gate.Wait(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []SearchResult[M]{}, nil
	}

	ix.st.mu.RLock()
	e, cached := ix.st.store.Get(query)
	ix.st.mu.RUnlock()

	qv := e.vector
	if !cached {
		var err error
		if qv, err = ix.embed(ctx, query); err != nil {
			return nil, fmt.Errorf("vecindex: embed query %q: %w", query, err)
		}
		if err := checkVector(query, qv); err != nil {
			return nil, err
		}
	}

	// Snapshot under the lock; filter runs unlocked so it may call back
	// into the index.
	type candidate struct {
		doc Document[M]
		vec []float32
	}
	ix.st.mu.RLock()
	cands := make([]candidate, 0, ix.st.store.Len())
	for p := ix.st.store.Oldest(); p != nil; p = p.Next() {
		cands = append(cands, candidate{
			doc: Document[M]{Content: p.Key, Metadata: p.Value.metadata},
			vec: p.Value.vector,
		})
	}
	ix.st.mu.RUnlock()

	results := make([]SearchResult[M], 0, len(cands))
	for _, c := range cands {
		if filter != nil && !filter(c.doc) {
			continue
		}
		results = append(results, SearchResult[M]{
			Document: c.doc,
			Score:    CosineSimilarity(qv, c.vec),
		})
	}
	slices.SortStableFunc(results, func(a, b SearchResult[M]) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Get returns the stored document and vector for content.
func (ix *Index[M]) Get(content string) (VectorDocument[M], bool) {
	ix.st.mu.RLock()
	e, ok := ix.st.store.Get(content)
	ix.st.mu.RUnlock()
	if !ok {
		return VectorDocument[M]{}, false
	}
	return VectorDocument[M]{
		Document: Document[M]{Content: content, Metadata: e.metadata},
		Vector:   slices.Clone(e.vector),
	}, true
}

// Remove deletes the document with the given content and reports whether
// it was present.
func (ix *Index[M]) Remove(content string) bool {
	ix.st.mu.Lock()
	_, ok := ix.st.store.Delete(content)
	if ok {
		ix.st.touch()
	}
	ix.st.mu.Unlock()

	if ok {
		ix.autoSave()
	}
	return ok
}

// Clear removes every document.
func (ix *Index[M]) Clear() {
	ix.st.mu.Lock()
	changed := ix.st.store.Len() > 0
	if changed {
		ix.st.store = orderedmap.New[string, entry[M]]()
		ix.st.touch()
	}
	ix.st.mu.Unlock()

	if changed {
		ix.autoSave()
	}
}

// GetAll returns every document in insertion order.
func (ix *Index[M]) GetAll() []Document[M] {
	ix.st.mu.RLock()
	defer ix.st.mu.RUnlock()
	docs := make([]Document[M], 0, ix.st.store.Len())
	for p := ix.st.store.Oldest(); p != nil; p = p.Next() {
		docs = append(docs, Document[M]{Content: p.Key, Metadata: p.Value.metadata})
	}
	return docs
}

// Count returns the number of stored documents.
func (ix *Index[M]) Count() int {
	ix.st.mu.RLock()
	defer ix.st.mu.RUnlock()
	return ix.st.store.Len()
}

// Dirty reports whether memory holds changes not yet in a snapshot.
func (ix *Index[M]) Dirty() bool {
	ix.st.mu.RLock()
	defer ix.st.mu.RUnlock()
	return ix.st.dirty
}

// touch marks a mutation. Callers hold st.mu.
func (st *state[M]) touch() {
	st.dirty = true
	st.version++
}
