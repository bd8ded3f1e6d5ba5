package vecindex

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEmbedFunc is returned by New when no EmbedFunc is given.
	ErrNoEmbedFunc = errors.New("vecindex: embed func is required")

	// ErrNoAdapter is returned by New when a storage path is set without
	// an Adapter to persist to.
	ErrNoAdapter = errors.New("vecindex: adapter is required when StoragePath is set")

	// ErrMetadataType is returned by New when a storage path is already
	// registered with a different metadata type.
	ErrMetadataType = errors.New("vecindex: storage path registered with another metadata type")

	// ErrClosed is returned by Save once the index's Registry is closed.
	ErrClosed = errors.New("vecindex: registry closed")
)

// InvalidVectorError reports an embedding that cannot be indexed: an empty
// vector or one with NaN or infinite components.
type InvalidVectorError struct {
	Content string
	Reason  string
}

func (e *InvalidVectorError) Error() string {
	return fmt.Sprintf("vecindex: invalid vector for %q: %s", e.Content, e.Reason)
}
