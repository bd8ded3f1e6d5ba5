package vecindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/haivivi/vecdb/pkg/debounce"
)

// load fills a freshly created state from the adapter. It runs before the
// state's gate is first released, so no other handle can observe it yet.
func (ix *Index[M]) load(ctx context.Context) {
	records, err := ix.readSnapshot(ctx)
	if err != nil {
		ix.log.Error("vecindex: load snapshot failed, starting empty", "error", err)
		return
	}

	st := ix.st
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, r := range records {
		st.store.Set(r.Content, entry[M]{vector: r.Vector, metadata: r.Metadata})
	}
	if ix.cfg.Debug {
		ix.log.Debug("vecindex: loaded snapshot", "records", st.store.Len())
	}
}

func (ix *Index[M]) readSnapshot(ctx context.Context) ([]Record[M], error) {
	ok, err := ix.adapter.Exists(ctx, ix.st.path)
	if err != nil {
		return nil, fmt.Errorf("exists: %w", err)
	}
	if !ok {
		return nil, nil
	}
	records, err := ix.adapter.Load(ctx, ix.st.path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	valid := records[:0]
	for _, r := range records {
		if err := checkVector(r.Content, r.Vector); err != nil {
			ix.log.Warn("vecindex: skipping snapshot record", "error", err)
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// Save writes a snapshot if memory has unsaved changes and waits for it.
// It fails with [ErrClosed] once the Registry is closed.
//
// The write is debounced with other saves on the same storage path, so
// Save returns once the last write of the burst has finished. Write
// failures are logged, not returned; [Index.Dirty] stays true afterwards.
// If ctx ends first, Save returns ctx.Err() and the write still completes
// in the background.
func (ix *Index[M]) Save(ctx context.Context) error {
	if ix.st.path == "" || !ix.Dirty() {
		return nil
	}
	if err := ix.schedule(); err != nil {
		return err
	}
	return ix.st.gate.Wait(ctx)
}

func (ix *Index[M]) autoSave() {
	if ix.cfg.DisableAutoSave || ix.st.path == "" {
		return
	}
	if err := ix.schedule(); err != nil {
		ix.log.Warn("vecindex: auto-save skipped", "error", err)
	}
}

// schedule takes a gate hold and queues a write that releases it. A write
// that replaces a still-pending one releases the replaced write's hold, and
// a write the scheduler refuses releases its own.
func (ix *Index[M]) schedule() error {
	g := ix.st.gate
	g.Lock()
	replaced, err := ix.reg.sched.Schedule(ix.st.path, ix.cfg.saveDelay(), func() {
		defer g.Unlock()
		ix.persist(context.Background())
	})
	if err != nil {
		g.Unlock()
		if errors.Is(err, debounce.ErrStopped) {
			return ErrClosed
		}
		return err
	}
	if replaced {
		g.Unlock()
	}
	return nil
}

// persist snapshots the state, trims it to the size bound and hands it to
// the adapter. Errors are logged and swallowed.
func (ix *Index[M]) persist(ctx context.Context) {
	start := time.Now()
	records, version, err := ix.trimmedSnapshot()
	if err != nil {
		ix.log.Error("vecindex: encode snapshot failed", "error", err)
		return
	}
	if err := ix.adapter.Save(ctx, ix.st.path, records); err != nil {
		ix.log.Error("vecindex: save snapshot failed", "error", err, "records", len(records))
		return
	}

	st := ix.st
	st.mu.Lock()
	if st.version == version {
		st.dirty = false
	}
	st.mu.Unlock()

	if ix.cfg.Debug {
		ix.log.Debug("vecindex: saved snapshot", "records", len(records), "elapsed", time.Since(start))
	}
}

// trimmedSnapshot returns the records to persist and the state version they
// reflect. Entries that push the JSON encoding past the size bound are
// evicted oldest first, from memory as well as from the snapshot.
func (ix *Index[M]) trimmedSnapshot() ([]Record[M], uint64, error) {
	st := ix.st
	st.mu.Lock()
	defer st.mu.Unlock()

	records := make([]Record[M], 0, st.store.Len())
	for p := st.store.Oldest(); p != nil; p = p.Next() {
		records = append(records, Record[M]{
			Content:  p.Key,
			Vector:   p.Value.vector,
			Metadata: p.Value.metadata,
		})
	}

	limit := ix.cfg.maxBytes()
	if limit == 0 {
		return records, st.version, nil
	}

	sizes := make([]int, len(records))
	total := 2 // []
	for i, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, 0, fmt.Errorf("record %q: %w", r.Content, err)
		}
		sizes[i] = len(b)
		total += len(b)
		if i > 0 {
			total++ // ,
		}
	}
	size := total

	n := 0
	for total > limit && n < len(records) {
		total -= sizes[n]
		if n < len(records)-1 {
			total--
		}
		n++
	}
	if n == 0 {
		return records, st.version, nil
	}

	for _, r := range records[:n] {
		st.store.Delete(r.Content)
	}
	if ix.cfg.Debug {
		ix.log.Debug("vecindex: evicted oldest entries to fit size bound",
			"evicted", n, "kept", len(records)-n, "bytes_before", size, "bytes_after", total, "limit", limit)
	}
	return records[n:], st.version, nil
}
