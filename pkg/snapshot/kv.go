package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/vecdb/pkg/kv"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

// DefaultKVPrefix is the first key segment of snapshots in a kv.Store.
const DefaultKVPrefix = "vecdb"

// KV stores each snapshot as one msgpack value under kv.Key{prefix, key}.
//
// Storage paths often contain ':', so the store should be opened with a
// separator such as 0x1F rather than the default.
type KV[M any] struct {
	store  kv.Store
	prefix string
}

var _ vecindex.Adapter[any] = (*KV[any])(nil)

// NewKV creates a KV adapter. An empty prefix means DefaultKVPrefix.
func NewKV[M any](store kv.Store, prefix string) *KV[M] {
	if prefix == "" {
		prefix = DefaultKVPrefix
	}
	return &KV[M]{store: store, prefix: prefix}
}

func (a *KV[M]) key(path string) kv.Key {
	return kv.Key{a.prefix, path}
}

func (a *KV[M]) Save(ctx context.Context, key string, records []vecindex.Record[M]) error {
	if records == nil {
		records = []vecindex.Record[M]{}
	}
	data, err := msgpack.Marshal(records)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}
	if err := a.store.Set(ctx, a.key(key), data); err != nil {
		return fmt.Errorf("snapshot: set %s: %w", key, err)
	}
	return nil
}

func (a *KV[M]) Load(ctx context.Context, key string) ([]vecindex.Record[M], error) {
	data, err := a.store.Get(ctx, a.key(key))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: get %s: %w", key, err)
	}
	var records []vecindex.Record[M]
	if err := msgpack.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	return records, nil
}

func (a *KV[M]) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := a.store.Has(ctx, a.key(key))
	if err != nil {
		return false, fmt.Errorf("snapshot: has %s: %w", key, err)
	}
	return ok, nil
}
