package vecindex

import "context"

// Adapter persists snapshots addressed by storage path.
//
// Load returns an empty slice, not an error, when nothing is stored under
// key. Implementations must be safe for concurrent use.
type Adapter[M any] interface {
	Save(ctx context.Context, key string, records []Record[M]) error
	Load(ctx context.Context, key string) ([]Record[M], error)
	Exists(ctx context.Context, key string) (bool, error)
}
